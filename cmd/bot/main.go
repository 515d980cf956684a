package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/hojimahmudov/orderbot/internal/bot/flow"
	"github.com/hojimahmudov/orderbot/internal/bot/gateway"
	"github.com/hojimahmudov/orderbot/internal/bot/session"
	"github.com/hojimahmudov/orderbot/internal/bot/telegram"
	"github.com/hojimahmudov/orderbot/internal/config"
)

func main() {
	// load .env into os.Environ
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found (ok in prod)")
	}

	cfg := &config.Config{}
	if err := env.Parse(cfg); err != nil {
		fmt.Printf("Failed to parse config: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	sessions, err := session.Open(cfg.Bot.SessionDBPath)
	if err != nil {
		log.Fatal("session store init: ", err)
	}

	timeout := time.Duration(cfg.Bot.RequestTimeoutSeconds) * time.Second
	api := gateway.NewClient(&http.Client{Timeout: timeout}, cfg.Bot.APIBaseURL, sessions, logger)

	transport := telegram.NewClient(&http.Client{Timeout: timeout + 40*time.Second}, cfg.Bot.ChatToken, logger)
	engine := flow.NewEngine(sessions, api, transport, timeout, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go transport.Poll(ctx, engine.Dispatch)
	log.Println("Bot started, polling for updates")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")
	cancel()
	engine.Close()
}
