package main

import (
	"bufio"
	"chat-hub/infrastructure/grpc/api"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Netflix/go-env"
	"github.com/gookit/color"
	"github.com/joho/godotenv"
	"github.com/mama165/sdk-go/logs"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

// Config defines the client-side environment variables.
type Config struct {
	ServerAddress  string `env:"CHAT_SERVER_ADDR,default=localhost:8080"`
	Email          string `env:"CHAT_EMAIL,required=true"`
	Password       string `env:"CHAT_PASSWORD,required=true"`
	ConversationID string `env:"CHAT_CONVERSATION_ID,required=true"`
	LogLevel       string `env:"LOG_LEVEL,default=INFO"`
}

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Client error: %v\n", err)
	}
	os.Exit(code)
}

// run logs in, subscribes to one conversation and prints what arrives.
// Every line typed on stdin is sent as a text message.
func run() (int, error) {
	// A missing .env is fine, the environment may already be set
	_ = godotenv.Load()

	var config Config
	if _, err := env.UnmarshalFromEnviron(&config); err != nil {
		return exitConfig, fmt.Errorf("config error: %w", err)
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := grpc.NewClient(config.ServerAddress,
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		api.WithJSONCodec(),
	)
	if err != nil {
		return exitRuntime, fmt.Errorf("could not connect to server at %s: %w", config.ServerAddress, err)
	}
	defer func() {
		log.Info("Closing connection...")
		_ = conn.Close()
	}()

	session, err := api.NewAuthServiceClient(conn).Login(ctx, &api.LoginRequest{Email: config.Email, Password: config.Password})
	if err != nil {
		return exitRuntime, fmt.Errorf("login failed: %w", err)
	}
	ctx = metadata.AppendToOutgoingContext(ctx, "authorization", "Bearer "+session.Token)
	client := api.NewConversationServiceClient(conn)

	stream, err := client.Subscribe(ctx, &api.SubscribeRequest{ConversationID: config.ConversationID})
	if err != nil {
		return exitRuntime, fmt.Errorf("failed to open stream: %w", err)
	}
	if _, err := stream.Header(); err != nil {
		return exitRuntime, fmt.Errorf("subscription refused: %w", err)
	}
	log.Info("Connected, listening (Ctrl+C to quit)", "server", config.ServerAddress, "conversation_id", config.ConversationID)

	printHistory(ctx, log, client, config.ConversationID)
	go sendLines(ctx, log, client, config.ConversationID, os.Stdin)

	for {
		evt, err := stream.Recv()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, io.EOF) {
				log.Info("Stopping client...")
				return exitOK, nil
			}
			return exitRuntime, fmt.Errorf("stream error: %w", err)
		}
		switch {
		case evt.Message != nil:
			printMessage(*evt.Message, session.UserID)
		case evt.Typing != nil && evt.Typing.IsTyping:
			color.Gray.Printf("%s is typing...\n", evt.Typing.UserID)
		case evt.Removed != nil:
			color.Yellow.Printf("%s was removed by %s\n", evt.Removed.UserID, evt.Removed.RemovedBy)
		}
	}
}

// printHistory shows the last page, oldest first, so that the live stream
// continues where it ends.
func printHistory(ctx context.Context, log *slog.Logger, client api.ConversationServiceClient, conversationID string) {
	resp, err := client.ListMessages(ctx, &api.ListMessagesRequest{ConversationID: conversationID, Page: 0, PageSize: 20})
	if err != nil {
		log.Warn("Unable to load history", "error", err)
		return
	}
	for i := len(resp.Messages) - 1; i >= 0; i-- {
		printMessage(resp.Messages[i], "")
	}
	if _, err := client.MarkRead(ctx, &api.MarkReadRequest{ConversationID: conversationID}); err != nil {
		log.Debug("Unable to mark conversation read", "error", err)
	}
}

func sendLines(ctx context.Context, log *slog.Logger, client api.ConversationServiceClient, conversationID string, in io.Reader) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if _, err := client.SendMessage(ctx, &api.SendMessageRequest{ConversationID: conversationID, Content: line}); err != nil {
			log.Error("Message not sent", "error", err)
		}
	}
}

func printMessage(m api.Message, self string) {
	at := m.CreatedAt.Local().Format(time.TimeOnly)
	author := color.Cyan.Sprint(m.SenderName)
	if m.SenderID == self {
		author = color.Green.Sprint(m.SenderName)
	}
	content := m.Content
	if m.Attachment != nil {
		content = fmt.Sprintf("%s [%s %s]", content, m.Kind, m.Attachment.URL)
	}
	fmt.Printf("[%s] %s: %s\n", at, author, content)
}
