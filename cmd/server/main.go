// Command main is the entry point for the StuVerflow backend server.
package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stuverflow/internal/config"
	"stuverflow/internal/database"
	"stuverflow/internal/middleware"
	"stuverflow/internal/observability"
	"stuverflow/internal/seed"
	"stuverflow/internal/server"

	"github.com/gofiber/fiber/v2"
)

func main() {
	seedDemo := flag.Bool("seed", false, "populate the database with demo data and exit")
	seedPreset := flag.String("seed-preset", "", "apply a YAML seed preset and exit")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	middleware.InitMiddleware(cfg)

	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "stuverflow-api",
		ServiceVersion: "1.0.0",
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSamplerRatio,
	})
	if err != nil {
		log.Fatalf("Failed to initialize tracing: %v", err)
	}

	if *seedDemo || *seedPreset != "" {
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatalf("Database connection failed: %v", err)
		}
		if *seedPreset != "" {
			preset, err := seed.LoadPreset(*seedPreset)
			if err != nil {
				log.Fatalf("Seed preset failed: %v", err)
			}
			if err := preset.Apply(db); err != nil {
				log.Fatalf("Seed preset failed: %v", err)
			}
		} else if err := seed.Run(db, seed.Options{}); err != nil {
			log.Fatalf("Seeding failed: %v", err)
		}
		return
	}

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	app := fiber.New(fiber.Config{
		AppName:   "StuVerflow API",
		BodyLimit: 10 * 1024 * 1024,
	})

	srv.SetupMiddleware(app)
	srv.SetupRoutes(app)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := app.ShutdownWithContext(ctx); err != nil {
			log.Printf("Server shutdown error: %v", err)
		}
		if shutdownTracing != nil {
			if err := shutdownTracing(ctx); err != nil {
				log.Printf("Tracing shutdown error: %v", err)
			}
		}
	}()

	log.Printf("Server starting on port %s...", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
