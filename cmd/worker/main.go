package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/jobiq/quality-engine/internal/config"
	"github.com/jobiq/quality-engine/internal/domain"
	"github.com/jobiq/quality-engine/internal/engine"
	"github.com/jobiq/quality-engine/internal/indexer"
	"github.com/jobiq/quality-engine/internal/queue"
	"github.com/jobiq/quality-engine/internal/repost"
	"github.com/jobiq/quality-engine/internal/store"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting Scoring Worker Service")

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment")
	}
	cfg := config.Load()

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatalf("Redis connection failed: %v", err)
	}
	log.Println("Redis connected")

	st, err := store.NewPostgres(cfg.Postgres.ConnectionString)
	if err != nil {
		log.Fatalf("Postgres connection failed: %v", err)
	}
	defer st.Close()
	log.Println("Postgres connected")

	esIndexer, err := indexer.NewElasticsearchIndexer(cfg.Elasticsearch.Addresses, cfg.Elasticsearch.Index)
	if err != nil {
		log.Fatalf("Elasticsearch connection failed: %v", err)
	}
	log.Printf("Elasticsearch connected, index: %s", cfg.Elasticsearch.Index)

	if err := esIndexer.EnsureIndex(ctx); err != nil {
		log.Printf("Warning: Failed to ensure index: %v", err)
	}

	eng := engine.New(st, engine.Config{
		GroupSize: cfg.Engine.GroupSize,
		Repost: repost.Config{
			CandidateWindow:    cfg.Engine.CandidateWindow,
			TitleSimilarityPct: cfg.Engine.TitleSimilarityPct,
		},
	})
	consumer := queue.NewConsumer(rdb, cfg.Redis.ScoreQueue, cfg.Worker.PollTimeout)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		runWorkers(ctx, cfg, consumer, st, eng, esIndexer)
	}()

	sig := <-sigChan
	log.Printf("Received signal %v, shutting down", sig)
	cancel()
	<-done
	log.Println("Worker service stopped")
}

func runWorkers(
	ctx context.Context,
	cfg *config.Config,
	consumer *queue.Consumer,
	st store.Store,
	eng *engine.Engine,
	idx indexer.Indexer,
) {
	log.Printf("Starting worker pool with %d workers", cfg.Worker.Concurrency)

	doneCh := make(chan struct{}, cfg.Worker.Concurrency)
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		go func(workerID int) {
			defer func() { doneCh <- struct{}{} }()
			runSingle(ctx, workerID, cfg.Worker.BatchSize, consumer, st, eng, idx)
		}(i)
	}
	for i := 0; i < cfg.Worker.Concurrency; i++ {
		<-doneCh
	}
}

func runSingle(
	ctx context.Context,
	workerID, batchSize int,
	consumer *queue.Consumer,
	st store.Store,
	eng *engine.Engine,
	idx indexer.Indexer,
) {
	log.Printf("Worker %d started", workerID)

	for {
		select {
		case <-ctx.Done():
			log.Printf("Worker %d stopping", workerID)
			return
		default:
		}

		// ConsumeBatch blocks with BRPOP for the first item, so no CPU spinning.
		reqs, err := consumer.ConsumeBatch(ctx, batchSize)
		if err != nil {
			log.Printf("Worker %d consume error: %v", workerID, err)
			continue
		}
		if len(reqs) == 0 {
			continue // BRPOP timeout, try again
		}

		log.Printf("Worker %d processing %d requests", workerID, len(reqs))

		jobs := loadJobs(ctx, st, reqs)
		if len(jobs) == 0 {
			continue
		}

		// One reputation cache per batch, discarded afterward.
		cache := engine.NewReputationCache()
		scored, summary := eng.ScoreJobBatch(ctx, jobs, cache)
		log.Printf("Worker %d scored batch: processed=%d failed=%d flagged=%d",
			workerID, summary.Processed, summary.Failed, summary.FlaggedForReview)

		if len(scored) > 0 {
			if err := idx.BulkIndex(ctx, scored); err != nil {
				log.Printf("Worker %d index error: %v", workerID, err)
			} else {
				log.Printf("Worker %d indexed %d jobs", workerID, len(scored))
			}
		}
	}
}

func loadJobs(ctx context.Context, st store.Store, reqs []queue.ScoreRequest) []*domain.Job {
	jobs := make([]*domain.Job, 0, len(reqs))
	for _, req := range reqs {
		job, err := st.JobByID(ctx, req.JobID)
		if err != nil {
			log.Printf("load job %s: %v", req.JobID, err)
			continue
		}
		jobs = append(jobs, job)
	}
	return jobs
}
