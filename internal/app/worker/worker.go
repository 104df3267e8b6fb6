package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"watermark-processor/internal/broker"
	kafka_impl "watermark-processor/internal/broker/kafka"
	"watermark-processor/internal/config"
	"watermark-processor/internal/domain"
	minio_repo "watermark-processor/internal/repository/image/cloud/minio"
	postgres_repo "watermark-processor/internal/repository/image/db/postgres"
	"watermark-processor/internal/usecase/processor"
	"watermark-processor/internal/watermark"

	"github.com/segmentio/kafka-go"
	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
)

type Worker struct {
	cfg       *config.Config
	logger    *zlog.Zerolog
	db        *dbpg.DB
	consumer  broker.Consumer
	producer  broker.Producer
	fileRepo  *minio_repo.FileRepository
	processor *processor.BatchProcessor
	imageRepo *postgres_repo.ImagesRepository
	batches   *postgres_repo.BatchesRepository
	wg        sync.WaitGroup
}

func NewWorker(cfg *config.Config, logger *zlog.Zerolog) (*Worker, error) {
	retries := cfg.DefaultRetryStrategy()

	dbOpts := &dbpg.Options{
		MaxOpenConns:    cfg.DB.MaxOpenConns,
		MaxIdleConns:    cfg.DB.MaxIdleConns,
		ConnMaxLifetime: cfg.DB.ConnMaxLifetime,
	}

	db, err := dbpg.New(cfg.DBDSN(), []string{}, dbOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	fileRepo, err := minio_repo.NewMinIORepository(cfg, retries, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create file repository: %w", err)
	}

	engine, err := watermark.NewEngineWithFontDir(cfg.Worker.FontDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create watermark engine: %w", err)
	}

	return &Worker{
		cfg:       cfg,
		logger:    logger,
		db:        db,
		consumer:  kafka_impl.NewConsumerClient(cfg),
		producer:  kafka_impl.NewProducerClient(cfg),
		fileRepo:  fileRepo,
		processor: processor.NewBatchProcessor(engine, fileRepo, cfg.Worker.ImageYield, logger),
		imageRepo: postgres_repo.NewImagesRepository(db, retries),
		batches:   postgres_repo.NewBatchesRepository(db, retries),
	}, nil
}

func (w *Worker) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	messages := make(chan kafka.Message, w.cfg.Worker.Concurrency)

	go w.consumer.StartConsuming(ctx, messages, w.cfg.DefaultRetryStrategy())

	for i := 0; i < w.cfg.Worker.Concurrency; i++ {
		w.wg.Add(1)
		go func(id int) {
			defer w.wg.Done()
			w.worker(ctx, id, messages)
		}(i)
	}

	w.logger.Info().
		Int("concurrency", w.cfg.Worker.Concurrency).
		Dur("image_yield", w.cfg.Worker.ImageYield).
		Msg("Worker started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	w.logger.Info().Str("signal", sig.String()).Msg("Received signal, shutting down")
	cancel()

	w.wg.Wait()

	if w.db != nil && w.db.Master != nil {
		w.db.Master.Close()
	}
	if err := w.consumer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Consumer close failed")
	}
	if err := w.producer.Close(); err != nil {
		w.logger.Error().Err(err).Msg("Producer close failed")
	}

	w.logger.Info().Msg("Worker stopped gracefully")
	return nil
}

func (w *Worker) worker(ctx context.Context, id int, messages <-chan kafka.Message) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Int("worker_id", id).Msg("Worker stopped")
			return
		case msg := <-messages:
			w.processMessage(ctx, id, msg)
		}
	}
}

func (w *Worker) processMessage(ctx context.Context, workerID int, msg kafka.Message) {
	var task domain.RenderTask
	if err := json.Unmarshal(msg.Value, &task); err != nil {
		w.logger.Error().Err(err).Int("worker_id", workerID).Msg("Failed to unmarshal task")
		// Poison message: commit so it is not redelivered forever.
		if err := w.consumer.Commit(ctx, msg); err != nil {
			w.logger.Error().Err(err).Msg("Failed to commit malformed message")
		}
		return
	}

	w.logger.Info().
		Int("worker_id", workerID).
		Str("task_id", task.ID).
		Str("batch_id", task.BatchID).
		Int("images", len(task.Images)).
		Msg("Processing batch task")

	if err := w.batches.UpdateStatus(ctx, task.BatchID, domain.BatchProcessing); err != nil {
		w.logger.Error().Err(err).Str("batch_id", task.BatchID).Msg("Failed to mark batch processing")
	}

	start := time.Now()
	result, err := w.processor.Process(ctx, &task)
	if err != nil {
		w.logger.Error().Err(err).Str("batch_id", task.BatchID).Msg("Batch task failed")
	}

	w.persistResult(ctx, &task, result)

	if err := w.sendResult(ctx, result); err != nil {
		w.logger.Error().Err(err).Str("batch_id", task.BatchID).Msg("Failed to send result")
	}

	if err := w.consumer.Commit(ctx, msg); err != nil {
		w.logger.Error().Err(err).Str("batch_id", task.BatchID).Msg("Failed to commit message")
	}

	w.logger.Info().
		Int("worker_id", workerID).
		Str("batch_id", task.BatchID).
		Str("status", string(result.Status)).
		Dur("duration", time.Since(start)).
		Msg("Batch task completed")
}

func (w *Worker) persistResult(ctx context.Context, task *domain.RenderTask, result *domain.RenderResult) {
	var rendered, failed int

	for _, ir := range result.Images {
		row := &domain.RenderedImage{
			BatchID: task.BatchID,
			ImageID: ir.ImageID,
			Path:    ir.Path,
			Size:    ir.Size,
			Format:  task.Format,
			Error:   ir.Error,
		}
		imageStatus := domain.StatusCompleted
		if ir.Rendered {
			row.Status = "rendered"
			row.MimeType = mimeTypeForFormat(task.Format)
			rendered++
		} else {
			row.Status = "failed"
			imageStatus = domain.StatusFailed
			failed++
		}

		if err := w.batches.SaveRenderedImage(ctx, row); err != nil {
			w.logger.Error().Err(err).
				Str("batch_id", task.BatchID).
				Str("image_id", ir.ImageID).
				Msg("Failed to save rendered image row")
		}

		if err := w.imageRepo.UpdateStatus(ctx, ir.ImageID, imageStatus); err != nil {
			w.logger.Error().Err(err).
				Str("image_id", ir.ImageID).
				Msg("Failed to update image status")
		}
	}

	if err := w.batches.UpdateCounts(ctx, task.BatchID, result.Status, rendered, failed); err != nil {
		w.logger.Error().Err(err).Str("batch_id", task.BatchID).Msg("Failed to update batch counts")
	}
}

func (w *Worker) sendResult(ctx context.Context, result *domain.RenderResult) error {
	resultBytes, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	return w.producer.SendResult(ctx, w.cfg.DefaultRetryStrategy(), []byte(result.BatchID), resultBytes)
}

func mimeTypeForFormat(format domain.ImageFormat) string {
	if format == domain.FormatPNG {
		return "image/png"
	}
	return "image/jpeg"
}
