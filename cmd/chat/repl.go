// File: cmd/chat/repl.go
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/iakadir/go-iakadir/internal/auth"
	"github.com/iakadir/go-iakadir/internal/domain"
	"github.com/iakadir/go-iakadir/internal/services"
	"github.com/iakadir/go-iakadir/internal/services/chat"
	"github.com/iakadir/go-iakadir/internal/services/conversation"
)

const helpText = `Commands:
  /new <assistant|summarize|image>   start a conversation
  /list                              list conversations, most recent first
  /open <id>                         reopen a conversation
  /rename <id> <title>               rename a conversation
  /delete <id>                       delete a conversation
  /regen                             regenerate the last reply
  /audio <file>                      summarize an audio file (summarize mode)
  /style <style>                     image style: surreal, realistic, cinematic, anime, illustration, threeD, pixel
  /copy                              print the last reply
  /login <token>                     use a session token
  /logout                            switch back to the guest conversations
  /help                              show this help
  /quit                              exit
Any other line is sent to the assistant.`

// tokenHolder is the session token source shared with the proxy client.
type tokenHolder struct {
	mu    sync.RWMutex
	token string
}

func (t *tokenHolder) SessionToken() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.token
}

func (t *tokenHolder) Set(token string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.token = token
}

type appDeps struct {
	store   *conversation.Store
	client  chat.Assistant
	tokens  *tokenHolder
	chatCfg *chat.Config
	logger  services.Logger
	in      io.Reader
	out     io.Writer
	mode    domain.Mode
}

type app struct {
	appDeps
	session *chat.Session
	style   domain.ImageStyle

	user      func(a ...interface{}) string
	assistant func(a ...interface{}) string
	info      func(a ...interface{}) string
	warn      func(a ...interface{}) string
}

func newApp(deps appDeps) *app {
	a := &app{
		appDeps:   deps,
		user:      color.New(color.FgGreen, color.Bold).SprintFunc(),
		assistant: color.New(color.FgCyan, color.Bold).SprintFunc(),
		info:      color.New(color.FgHiBlack).SprintFunc(),
		warn:      color.New(color.FgYellow).SprintFunc(),
	}

	lastIdentity := deps.store.ActiveIdentity()
	deps.store.Subscribe(func(snap conversation.Snapshot) {
		if snap.Identity == lastIdentity {
			return
		}
		lastIdentity = snap.Identity
		who := "guest"
		if snap.Identity != "" {
			who = snap.Identity
		}
		a.printf("%s\n", a.info(fmt.Sprintf("Signed in as %s: %d conversation(s)", who, len(snap.Conversations))))
	})
	return a
}

func (a *app) printf(format string, args ...interface{}) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *app) run(ctx context.Context) {
	a.printf("%s\n", a.user("Iakadir"))
	a.printf("Mode: %s. Type /help for commands.\n\n", a.assistant(string(a.mode)))

	lines := a.readLines(ctx)
	for {
		a.printf("%s", a.user("You: "))
		var line string
		select {
		case <-ctx.Done():
			return
		case l, ok := <-lines:
			if !ok {
				return
			}
			line = strings.TrimSpace(l)
		}
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if quit := a.command(ctx, line); quit {
				return
			}
			continue
		}
		a.send(ctx, line)
		if ctx.Err() != nil {
			return
		}
	}
}

// readLines feeds input lines to the loop so a cancelled context can stop
// it while a read is still blocked.
func (a *app) readLines(ctx context.Context) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(a.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

// command runs one slash command and reports whether the loop should stop.
func (a *app) command(ctx context.Context, line string) bool {
	name, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch name {
	case "/quit", "/exit":
		return true
	case "/help":
		a.printf("%s\n", helpText)
	case "/new":
		a.newConversation(ctx, rest)
	case "/list":
		a.list()
	case "/open":
		a.open(ctx, rest)
	case "/rename":
		id, title, _ := strings.Cut(rest, " ")
		if !a.store.RenameConversation(ctx, id, title) {
			a.printf("%s\n", a.warn("No conversation "+id))
		}
	case "/delete":
		if !a.store.DeleteConversation(ctx, rest) {
			a.printf("%s\n", a.warn("No conversation "+rest))
			break
		}
		if a.session != nil && a.session.ConversationID() == rest {
			a.session = nil
		}
	case "/regen":
		a.regenerate(ctx)
	case "/audio":
		a.sendAudio(ctx, rest)
	case "/style":
		a.setStyle(rest)
	case "/copy":
		a.copyLastReply()
	case "/login":
		a.login(ctx, rest)
	case "/logout":
		a.logout(ctx)
	default:
		a.printf("%s\n", a.warn("Unknown command "+name+", try /help"))
	}
	return false
}

func (a *app) ensureSession(ctx context.Context) (*chat.Session, error) {
	if a.session != nil {
		return a.session, nil
	}
	s, err := chat.NewSession(ctx, a.store, a.client, a.chatCfg, a.logger, a.mode, "")
	if err != nil {
		return nil, err
	}
	if a.style != "" {
		s.SetImageStyle(a.style)
	}
	a.session = s
	return s, nil
}

func (a *app) send(ctx context.Context, text string) {
	s, err := a.ensureSession(ctx)
	if err != nil {
		a.printf("%s\n", a.warn(err.Error()))
		return
	}
	a.printReply(s.Send(ctx, text))
}

func (a *app) regenerate(ctx context.Context) {
	if a.session == nil {
		a.printf("%s\n", a.warn("Nothing to regenerate yet"))
		return
	}
	a.printReply(a.session.Regenerate(ctx))
}

func (a *app) sendAudio(ctx context.Context, path string) {
	if path == "" {
		a.printf("%s\n", a.warn("Usage: /audio <file>"))
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		a.printf("%s\n", a.warn(err.Error()))
		return
	}
	s, err := a.ensureSession(ctx)
	if err != nil {
		a.printf("%s\n", a.warn(err.Error()))
		return
	}
	a.printReply(s.SendAudio(ctx, data, filepath.Base(path)))
}

func (a *app) printReply(reply domain.Message, err error) {
	switch {
	case errors.Is(err, chat.ErrBusy):
		a.printf("%s\n", a.warn("Still waiting for the previous reply"))
	case errors.Is(err, chat.ErrWrongMode):
		a.printf("%s\n", a.warn("Audio needs a summarize conversation: /new summarize"))
	case err != nil:
		a.printf("%s\n", a.warn(err.Error()))
	default:
		text := reply.Text
		if reply.ImageURL != nil {
			text += "\n" + *reply.ImageURL
		}
		a.printf("%s%s\n\n", a.assistant("Assistant: "), text)
	}
}

func (a *app) newConversation(ctx context.Context, arg string) {
	mode := a.mode
	if arg != "" {
		parsed, err := domain.ParseMode(arg)
		if err != nil {
			a.printf("%s\n", a.warn(err.Error()))
			return
		}
		mode = parsed
	}
	a.mode = mode
	a.session = nil
	s, err := a.ensureSession(ctx)
	if err != nil {
		a.printf("%s\n", a.warn(err.Error()))
		return
	}
	a.printf("%s\n", a.info(fmt.Sprintf("New %s conversation %s", mode, s.ConversationID())))
}

func (a *app) list() {
	convs := a.store.Conversations()
	if len(convs) == 0 {
		a.printf("%s\n", a.info("No conversations yet"))
		return
	}
	for _, c := range convs {
		marker := " "
		if a.session != nil && a.session.ConversationID() == c.ID {
			marker = "*"
		}
		a.printf("%s %s  %-14s %s  %s\n", marker, c.ID, c.Mode, c.UpdatedAt.Local().Format("2006-01-02 15:04"), c.DisplayTitle())
	}
}

func (a *app) open(ctx context.Context, id string) {
	if _, ok := a.store.GetConversation(id); !ok {
		a.printf("%s\n", a.warn("No conversation "+id))
		return
	}
	s, err := chat.NewSession(ctx, a.store, a.client, a.chatCfg, a.logger, a.mode, id)
	if err != nil {
		a.printf("%s\n", a.warn(err.Error()))
		return
	}
	a.session = s
	a.mode = s.Mode()
	for _, m := range s.Messages() {
		if m.IsUser {
			a.printf("%s%s\n", a.user("You: "), m.Text)
		} else {
			a.printf("%s%s\n", a.assistant("Assistant: "), m.Text)
		}
	}
}

func (a *app) setStyle(name string) {
	style, err := domain.ParseImageStyle(name)
	if err != nil {
		a.printf("%s\n", a.warn(err.Error()))
		return
	}
	a.style = style
	if a.session != nil {
		a.session.SetImageStyle(style)
	}
	a.printf("%s\n", a.info("Image style: "+style.Label()))
}

func (a *app) copyLastReply() {
	if a.session == nil {
		a.printf("%s\n", a.warn("No reply yet"))
		return
	}
	if text, ok := a.session.LastReply(); ok {
		a.printf("%s\n", text)
		return
	}
	a.printf("%s\n", a.warn("No reply yet"))
}

func (a *app) login(ctx context.Context, token string) {
	subject, err := auth.SubjectFromToken(token)
	if err != nil {
		a.printf("%s\n", a.warn("Invalid session token: "+err.Error()))
		return
	}
	a.tokens.Set(token)
	if a.store.SetActiveIdentity(ctx, subject) {
		a.session = nil
	}
}

func (a *app) logout(ctx context.Context) {
	a.tokens.Set("")
	if a.store.SetActiveIdentity(ctx, "") {
		a.session = nil
	}
}
