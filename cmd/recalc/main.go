package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/jobiq/quality-engine/internal/config"
	"github.com/jobiq/quality-engine/internal/engine"
	"github.com/jobiq/quality-engine/internal/repost"
	"github.com/jobiq/quality-engine/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	once := flag.Bool("once", false, "run a single recalculation pass and exit")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	st, err := store.NewPostgres(cfg.Postgres.ConnectionString)
	if err != nil {
		log.Fatalf("Postgres connection failed: %v", err)
	}
	defer st.Close()
	log.Println("Postgres connected")

	eng := engine.New(st, engine.Config{
		GroupSize: cfg.Engine.GroupSize,
		Repost: repost.Config{
			CandidateWindow:    cfg.Engine.CandidateWindow,
			TitleSimilarityPct: cfg.Engine.TitleSimilarityPct,
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		runPass(ctx, eng)
		return
	}

	c := cron.New(cron.WithLogger(cron.DefaultLogger))
	if _, err := c.AddFunc(cfg.Engine.RecalcSpec, func() { runPass(ctx, eng) }); err != nil {
		log.Fatalf("cron.AddFunc: %v", err)
	}
	c.Start()
	log.Printf("Recalculation scheduler started, spec: %s", cfg.Engine.RecalcSpec)

	// Run immediately so scores are fresh without waiting for the first tick.
	go runPass(ctx, eng)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Printf("Received signal %v, shutting down", sig)

	cancel()
	<-c.Stop().Done()
	log.Println("Recalculation scheduler stopped")
}

func runPass(ctx context.Context, eng *engine.Engine) {
	log.Println("Recalculation pass started")
	summary, err := eng.RecalculateAll(ctx)
	if err != nil {
		log.Printf("Recalculation pass error: %v", err)
	}
	log.Printf("Recalculation pass finished: processed=%d failed=%d flagged=%d",
		summary.Processed, summary.Failed, summary.FlaggedForReview)
}
