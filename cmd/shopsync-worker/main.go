package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/craftyard/shopsync-worker/internal/config"
	"github.com/craftyard/shopsync-worker/internal/database"
	"github.com/craftyard/shopsync-worker/internal/quickbooks"
	"github.com/craftyard/shopsync-worker/internal/repository"
	"github.com/craftyard/shopsync-worker/internal/service"
	"github.com/craftyard/shopsync-worker/internal/watcher"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		return err
	}

	log.Println("Database connected successfully")

	// Run migrations
	log.Println("Running database migrations...")
	if err := database.RunMigrations(db); err != nil {
		return err
	}
	log.Println("Migrations completed successfully")

	// Initialize repositories
	connectionRepo := repository.NewConnectionRepository(db)
	jobRepo := repository.NewSyncJobRepository(db)
	customerRepo := repository.NewCustomerRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize QuickBooks connection manager and API client
	connectionManager := quickbooks.NewConnectionManager(quickbooks.OAuthConfig{
		ClientID:     cfg.QuickBooksClientID,
		ClientSecret: cfg.QuickBooksSecret,
		RedirectURI:  cfg.QuickBooksRedirect,
	}, connectionRepo)
	qbClient := quickbooks.NewClient(cfg.QuickBooksSandbox, connectionManager)

	// Initialize processors
	customerProcessor := service.NewCustomerProcessor(customerRepo, jobRepo, qbClient)
	invoiceProcessor := service.NewInvoiceProcessor(invoiceRepo, customerRepo, jobRepo, qbClient)
	orderProcessor := service.NewOrderProcessor(orderRepo, customerRepo, jobRepo, qbClient)

	// Initialize watcher
	w := watcher.New(cfg, jobRepo, connectionManager, customerProcessor, invoiceProcessor, orderProcessor)
	w.Start()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Println("Shutdown signal received")
	w.Stop()

	// Give an in-flight tick a bounded window to finish
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeout)*time.Second)
	defer shutdownCancel()

	for w.GetStatus().IsProcessing {
		select {
		case <-shutdownCtx.Done():
			log.Println("Shutdown timeout exceeded")
			return nil
		case <-time.After(100 * time.Millisecond):
		}
	}

	log.Println("Application stopped")
	return nil
}
