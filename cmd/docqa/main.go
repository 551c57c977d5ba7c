package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"docqa/internal/api"
	"docqa/internal/config"
	"docqa/internal/database/milvus"
	"docqa/internal/database/minio"
	"docqa/internal/database/mysql"
	"docqa/internal/database/redis"
	"docqa/internal/embedding"
	"docqa/internal/llm"
	"docqa/internal/models"
	"docqa/internal/rag/chunker"
	"docqa/internal/rag/extract"
	"docqa/internal/rag/interfaces"
	"docqa/internal/rag/pipeline"
	"docqa/internal/rag/store"
	"docqa/internal/service"
	"docqa/internal/storage"
	"docqa/pkg/logger"
	"docqa/pkg/ratelimiter"

	"github.com/gin-gonic/gin"
	goredis "github.com/go-redis/redis/v8"
	miniosdk "github.com/minio/minio-go/v7"
	"gorm.io/gorm"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "path to the configuration file")
	flag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.ParseLevel(cfg.Logger.Level))
	log := logger.New(cfg.App.Name, "")
	log.Info(fmt.Sprintf("Starting %s %s (%s)", cfg.App.Name, cfg.App.Version, cfg.App.Environment))

	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx := context.Background()

	// Relational store.
	db, err := mysql.New(&cfg.Databases.MySQL)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to connect to MySQL: %v", err))
		os.Exit(1)
	}
	defer mysql.Close(db)
	if err := db.AutoMigrate(&models.Document{}, &models.Chunk{}, &models.Query{}); err != nil {
		log.Error(fmt.Sprintf("Failed to migrate schema: %v", err))
		os.Exit(1)
	}

	// Object storage.
	minioClient, err := minio.New(ctx, &cfg.Databases.MinIO)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to connect to MinIO: %v", err))
		os.Exit(1)
	}
	if err := minio.EnsureBucket(ctx, minioClient, cfg.Databases.MinIO.Bucket); err != nil {
		log.Error(fmt.Sprintf("Failed to ensure bucket: %v", err))
		os.Exit(1)
	}
	objects := storage.New(minioClient, cfg.Databases.MinIO.Bucket)

	// Vector index.
	milvusClient, err := milvus.New(ctx, &cfg.Databases.Milvus)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Milvus: %v", err))
		os.Exit(1)
	}
	defer milvusClient.Close()
	if err := milvusClient.EnsureCollection(ctx); err != nil {
		log.Error(fmt.Sprintf("Failed to ensure collection: %v", err))
		os.Exit(1)
	}

	// Query-embedding cache. Optional: the service runs without it.
	var rdb *goredis.Client
	var cache interfaces.EmbeddingCache
	if cfg.Databases.Redis.Address != "" {
		rdb, err = redis.New(ctx, &cfg.Databases.Redis)
		if err != nil {
			log.Warn(fmt.Sprintf("Redis unavailable, embedding cache disabled: %v", err))
			rdb = nil
		} else {
			defer rdb.Close()
			cache = store.NewRedisEmbeddingCache(rdb, time.Duration(cfg.Databases.Redis.TTL)*time.Second)
		}
	}

	// Providers.
	embedder, err := embedding.New(&cfg.Embedding)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to create embedding provider: %v", err))
		os.Exit(1)
	}
	generator, err := llm.New(&cfg.LLM)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to create generation provider: %v", err))
		os.Exit(1)
	}

	var ocrFactory extract.OCRFactory
	if cfg.OCR.Enabled {
		ocrFactory = extract.NewTesseractFactory(cfg.OCR.Language)
	}
	extractor := extract.NewTextExtractor(ocrFactory, cfg.OCR.Upscale, log)

	// Pipeline assembly.
	docs := store.NewDocumentDAL(db)
	chunks := store.NewChunkDAL(db)
	queries := store.NewQueryDAL(db)
	index, err := store.NewMilvusIndex(milvusClient, log)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to create vector index: %v", err))
		os.Exit(1)
	}

	splitter := chunker.New(cfg.Pipeline.MaxChunkSize, cfg.Pipeline.ChunkOverlap, cfg.Pipeline.MinChunkSize)

	var limiter ratelimiter.RateLimiter
	if cfg.Pipeline.EmbedRate > 0 {
		limiter = ratelimiter.NewTokenBucket(cfg.Pipeline.EmbedRate, cfg.Pipeline.EmbedBurst)
	}

	coordinator := pipeline.NewCoordinator(docs, chunks, index, objects, extractor, embedder,
		splitter, limiter, cfg.Pipeline.EmbedBatchSize, log)
	retriever := pipeline.NewRetriever(embedder, index, chunks, cache, cfg.Embedding.Model,
		cfg.Pipeline.TopK, log)
	answerer := pipeline.NewAnswerGenerator(generator, cfg.LLM.MaxTokens, log)

	svc, err := service.New(coordinator, retriever, answerer, docs, queries,
		cfg.Pipeline.Workers, cfg.LLM.Model, log)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to create service: %v", err))
		os.Exit(1)
	}
	defer svc.Close()

	handler := api.NewHandler(svc, healthFunc(db, minioClient, milvusClient, rdb), log)
	router := api.SetupRouter(handler)

	srv := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	go func() {
		log.Info(fmt.Sprintf("HTTP server listening on %s", cfg.Server.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error(fmt.Sprintf("HTTP server error: %v", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(fmt.Sprintf("Forced shutdown: %v", err))
	}
	log.Info("Server stopped")
}

func healthFunc(db *gorm.DB, minioClient *miniosdk.Client, milvusClient *milvus.Client, rdb *goredis.Client) api.HealthFunc {
	check := func(err error) string {
		if err != nil {
			return err.Error()
		}
		return "ok"
	}
	return func(ctx context.Context) map[string]string {
		checks := map[string]string{
			"mysql":  check(mysql.HealthCheck(ctx, db)),
			"minio":  check(minio.HealthCheck(ctx, minioClient)),
			"milvus": check(milvusClient.HealthCheck(ctx)),
		}
		if rdb != nil {
			checks["redis"] = check(redis.HealthCheck(ctx, rdb))
		}
		return checks
	}
}
