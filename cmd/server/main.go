package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"capec-chatbot-be/internal/bootstrap"
	"capec-chatbot-be/internal/config"
	"capec-chatbot-be/internal/server"
	"capec-chatbot-be/internal/tracer"
)

func main() {
	// 0. Initialize Tracer
	shutdownTracer := tracer.InitTracer()
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Tracer shutdown error: %v", err)
		}
	}()

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	container, err := bootstrap.NewContainer(cfg)
	if err != nil {
		log.Panicf("Unable to bootstrap service: %v", err)
	}
	defer container.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. Start Background Services
	go func() {
		log.Println("Background: Starting Embedding Consumer...")
		if err := container.Consumer.Consume(ctx); err != nil {
			log.Printf("Background Consumer Error: %v", err)
		}
	}()
	go container.Admission.Run(ctx)

	// 4. Run Server
	srv := server.New(cfg, container)
	go func() {
		if err := srv.Run(); err != nil {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// 5. Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down...")
	cancel()
	if err := srv.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
