// File: cmd/diagnostic/llm_diagnostic.go
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	openai "github.com/sashabaranov/go-openai"

	"github.com/iakadir/go-iakadir/internal/auth"
	"github.com/iakadir/go-iakadir/internal/services"
	"github.com/iakadir/go-iakadir/internal/services/ai"
	"github.com/iakadir/go-iakadir/internal/services/proxyclient"
)

func main() {
	fmt.Println("Checking upstream and proxy connectivity...")

	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Could not load .env file: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	checkUpstream(ctx)
	checkProxy(ctx)
}

func checkUpstream(ctx context.Context) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		fmt.Println("-- OPENAI_API_KEY not set, skipping upstream check")
		return
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL := os.Getenv("OPENAI_BASE_URL"); baseURL != "" {
		config.BaseURL = baseURL
	}
	client := openai.NewClientWithConfig(config)

	models, err := client.ListModels(ctx)
	if err != nil {
		log.Fatalf("Model listing failed: %v", err)
	}
	fmt.Printf("OK  upstream lists %d models\n", len(models.Models))

	model := os.Getenv("DEFAULT_CHAT_MODEL")
	if model == "" {
		model = ai.DefaultChatModel
	}
	resp, err := client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: "Reply with the single word: pong"},
		},
	})
	if err != nil {
		fmt.Printf("ERR chat completion failed (%s): %v\n", proxyclient.ClassifyError(err), err)
		return
	}
	if len(resp.Choices) > 0 {
		fmt.Printf("OK  %s answered: %s\n", model, resp.Choices[0].Message.Content)
	}
}

func checkProxy(ctx context.Context) {
	proxyURL := os.Getenv("PROXY_URL")
	anonKey := os.Getenv("PROXY_ANON_KEY")
	if proxyURL == "" || anonKey == "" {
		fmt.Println("-- PROXY_URL or PROXY_ANON_KEY not set, skipping proxy check")
		return
	}

	var token proxyclient.StaticToken
	if secret := os.Getenv("SESSION_JWT_SECRET"); secret != "" {
		signed, err := auth.GenerateSessionToken("diagnostic", []byte(secret), 5*time.Minute)
		if err != nil {
			log.Fatalf("Could not mint a session token: %v", err)
		}
		token = proxyclient.StaticToken(signed)
	}

	client := proxyclient.NewClient(proxyclient.Config{URL: proxyURL, AnonKey: anonKey}, token, services.NewLogger("diagnostic"))

	text, err := client.GenerateText(ctx, []ai.InputMessage{{Role: openai.ChatMessageRoleUser, Content: "Reply with the single word: pong"}}, nil, "")
	if err != nil {
		fmt.Printf("ERR proxy chat failed (%s): %v\n", proxyclient.ClassifyError(err), err)
	} else {
		fmt.Printf("OK  proxy chat answered: %s\n", text)
	}

	_, err = client.GenerateImage(ctx, "diagnostic", "")
	fmt.Printf("OK  proxy image task answered with category %s\n", proxyclient.ClassifyError(err))
}
