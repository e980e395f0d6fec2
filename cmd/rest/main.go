package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"friendlist-be/internal/bootstrap"
	"friendlist-be/internal/config"
	"friendlist-be/internal/server"
	"friendlist-be/internal/tracer"
	"friendlist-be/pkg/database"

	"gorm.io/gorm"
)

func main() {
	// 0. Tracing (opt-in)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Database. Items fall back to the local store when it is unreachable.
	var gormDB *gorm.DB
	if cfg.Database.Connection != "" {
		db, err := database.NewGormDBFromDSN(cfg.Database.Connection, !cfg.IsProduction())
		if err != nil {
			log.Printf("[WARN] Database unavailable: %v", err)
		} else {
			gormDB = db
			if cfg.Database.AutoMigrate {
				if err := database.Migrate(gormDB); err != nil {
					log.Printf("[WARN] AutoMigrate failed: %v", err)
				}
			}
		}
	}

	// 3. Bootstrap Dependencies (Container)
	container := bootstrap.NewContainer(gormDB, cfg)
	defer container.Close()

	// 4. Server
	srv := server.New(cfg, container)

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		log.Println("Shutting down...")
		if err := srv.Shutdown(); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	if err := srv.Run(); err != nil {
		log.Printf("Server stopped: %v", err)
	}
}
