package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/yourusername/song-request-board/internal/backup"
	"github.com/yourusername/song-request-board/internal/config"
	"github.com/yourusername/song-request-board/internal/database"
	"github.com/yourusername/song-request-board/internal/events"
	"github.com/yourusername/song-request-board/internal/handlers"
	"github.com/yourusername/song-request-board/internal/songs"
	"github.com/yourusername/song-request-board/internal/stagedisplay"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	// Event publisher (optional)
	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		pub, err := events.NewNATSPublisher(cfg.NATSURL)
		if err != nil {
			return err
		}
		publisher = pub
		log.Printf("Events enabled: %s", cfg.NATSURL)
	} else {
		log.Println("ℹ️  Events disabled (NATS_URL not set)")
	}
	defer publisher.Close()

	backupManager, err := newBackupManager(ctx, cfg, db)
	if err != nil {
		return err
	}
	if err := backupManager.Prime(ctx); err != nil {
		log.Printf("⚠️  Warning: %v", err)
	}
	if cfg.Backup.Daily {
		backupManager.Start()
		defer backupManager.Stop()
	}

	// Stage display (optional)
	stage := stagedisplay.New(&stagedisplay.Config{
		Host:    cfg.ProPresenter.Host,
		Port:    cfg.ProPresenter.Port,
		Enabled: cfg.ProPresenter.Enabled,
	})
	if stage.IsEnabled() {
		if err := stage.Health(ctx); err != nil {
			log.Printf("⚠️  ProPresenter integration enabled but not connected: %v", err)
		} else {
			log.Printf("✅ ProPresenter integration enabled and connected: %s:%s", cfg.ProPresenter.Host, cfg.ProPresenter.Port)
		}
	} else {
		log.Println("ℹ️  ProPresenter integration disabled")
	}

	svc := songs.NewService(db,
		backupManager,
		events.Observer{Publisher: publisher},
		stage,
	)
	defer svc.Wait()

	h := handlers.New(svc, db, backupManager, stage)
	app := handlers.NewApp(h, handlers.AppConfig{
		Prefix:       cfg.APIPrefix,
		AllowOrigins: cfg.CORSOrigins,
	})

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listenErr := make(chan error, 1)
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		log.Printf("Backup directory: %s", cfg.Backup.Dir)
		listenErr <- app.Listen(cfg.Addr())
	}()

	select {
	case err := <-listenErr:
		return err
	case <-sigCtx.Done():
	}

	log.Println("Shutting down...")
	if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
		log.Printf("Error during shutdown: %v", err)
	}
	return nil
}

func newBackupManager(ctx context.Context, cfg *config.Config, db *database.DB) (*backup.Manager, error) {
	opts := backup.Options{
		Dir:           cfg.Backup.Dir,
		Every:         cfg.Backup.Every,
		RetentionDays: cfg.Backup.RetentionDays,
	}
	if cfg.Backup.S3Bucket != "" {
		uploader, err := backup.NewS3Uploader(ctx,
			cfg.Backup.S3Bucket,
			cfg.Backup.S3Prefix,
			cfg.Backup.S3Region,
			cfg.Backup.S3Endpoint,
		)
		if err != nil {
			return nil, err
		}
		opts.Uploader = uploader
		log.Printf("Backup S3 destination enabled: s3://%s/%s", cfg.Backup.S3Bucket, cfg.Backup.S3Prefix)
	}
	return backup.NewManager(db, opts), nil
}
