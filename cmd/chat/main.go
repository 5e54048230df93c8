// File: cmd/chat/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/iakadir/go-iakadir/internal/config"
	"github.com/iakadir/go-iakadir/internal/domain"
	"github.com/iakadir/go-iakadir/internal/repository/kv"
	"github.com/iakadir/go-iakadir/internal/services"
	"github.com/iakadir/go-iakadir/internal/services/chat"
	"github.com/iakadir/go-iakadir/internal/services/conversation"
	"github.com/iakadir/go-iakadir/internal/services/proxyclient"
)

var (
	modeFlag         = flag.String("mode", "assistant", "Conversation mode for new conversations: assistant, summarize or image")
	conversationFlag = flag.String("conversation", "", "Conversation ID to reopen")
)

func main() {
	flag.Parse()

	cfg, err := config.LoadClient()
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	mode, err := domain.ParseMode(*modeFlag)
	if err != nil {
		log.Fatalf("Invalid -mode: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		fmt.Println("\nShutting down...")
		cancel()
	}()

	logger := services.NewLogger("iakadir-chat")

	storage, err := openStorage(cfg)
	if err != nil {
		log.Fatalf("Could not open %s store: %v", cfg.StoreBackend, err)
	}
	defer storage.Close()

	store := conversation.NewStore(ctx, storage, logger)
	tokens := &tokenHolder{}
	client := proxyclient.NewClient(proxyclient.Config{
		URL:     cfg.ProxyURL,
		AnonKey: cfg.AnonKey,
		Timeout: cfg.RequestTimeout,
	}, tokens, logger)

	chatCfg := chat.DefaultConfig()
	chatCfg.ChatModel = cfg.ChatModel
	chatCfg.TranscribeModel = cfg.TranscribeModel

	app := newApp(appDeps{
		store:   store,
		client:  client,
		tokens:  tokens,
		chatCfg: chatCfg,
		logger:  logger,
		in:      os.Stdin,
		out:     os.Stdout,
		mode:    mode,
	})
	if cfg.SessionToken != "" {
		app.login(ctx, cfg.SessionToken)
	}
	if *conversationFlag != "" {
		app.open(ctx, *conversationFlag)
	}

	app.run(ctx)
}

func openStorage(cfg *config.ClientConfig) (kv.Store, error) {
	switch cfg.StoreBackend {
	case config.BackendSQLite:
		return kv.OpenSQLite(cfg.StorePath)
	case config.BackendMemory:
		return kv.NewMemoryStore(), nil
	default:
		return kv.OpenBolt(cfg.StorePath)
	}
}
