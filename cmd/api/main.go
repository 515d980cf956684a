package main

import (
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"

	"github.com/hojimahmudov/orderbot/internal/client"
	"github.com/hojimahmudov/orderbot/internal/config"
	"github.com/hojimahmudov/orderbot/internal/notify"
	"github.com/hojimahmudov/orderbot/internal/repository"
	"github.com/hojimahmudov/orderbot/internal/server"
	"github.com/hojimahmudov/orderbot/internal/service"
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

	db, err := client.InitSQLiteClient(cfg.DatabasePath)
	if err != nil {
		log.Fatal("database init: ", err)
	}

	sender := notify.NewTelegramSender(cfg.Bot.ChatToken)
	notifier := notify.NewNotifier(sender, logger)

	userRepo := repository.NewUserRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	branchRepo := repository.NewBranchRepository(db)
	cartRepo := repository.NewCartRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	srv := server.NewServer(cfg.Auth, db, server.Services{
		Auth:     service.NewAuthService(cfg.Auth, userRepo, sender, logger),
		Cart:     service.NewCartService(cartRepo, catalogRepo),
		Checkout: service.NewCheckoutService(db, cartRepo, orderRepo, branchRepo),
		Order:    service.NewOrderService(db, orderRepo, userRepo, notifier),
	})

	serverAddr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Println("Starting HTTP server on", serverAddr)
	go func() {
		if err := srv.Start(serverAddr); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server error")
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)

	<-sigChan
	log.Println("Signal received, starting graceful shutdown...")

	if err := srv.Shutdown(); err != nil {
		log.Fatal("HTTP server shutdown error")
	}
}
