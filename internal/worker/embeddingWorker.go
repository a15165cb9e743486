package worker

import (
	"context"
	"strings"
	"time"

	"github.com/gatherhub/gatherhub/config"
	repository "github.com/gatherhub/gatherhub/internal/database/postgres"
	"github.com/gatherhub/gatherhub/internal/service"
	"github.com/sirupsen/logrus"
)

// EmbeddingWorker backfills event embeddings in the background. It catches
// events whose generate_embedding task was lost or whose description changed,
// so semantic search converges even when the queue misbehaves.
type EmbeddingWorker struct {
	eventRepo repository.EventRepository
	embedder  service.Embedder
	logger    *logrus.Logger
	interval  time.Duration
	batchSize int
	stopChan  chan struct{}
	doneChan  chan struct{}
}

func NewEmbeddingWorker(
	eventRepo repository.EventRepository,
	embedder service.Embedder,
	logger *logrus.Logger,
	cfg config.WorkerConfig,
) *EmbeddingWorker {
	interval := cfg.BackfillInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	batchSize := cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}

	return &EmbeddingWorker{
		eventRepo: eventRepo,
		embedder:  embedder,
		logger:    logger,
		interval:  interval,
		batchSize: batchSize,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start runs the backfill loop until Stop is called. No-op when the embedder
// is disabled.
func (w *EmbeddingWorker) Start() {
	if w.embedder == nil {
		w.logger.Info("embedding worker disabled: no embedder configured")
		close(w.doneChan)
		return
	}

	go w.run()
	w.logger.WithField("interval", w.interval.String()).Info("embedding worker started")
}

func (w *EmbeddingWorker) Stop() {
	close(w.stopChan)
	<-w.doneChan
}

func (w *EmbeddingWorker) run() {
	defer close(w.doneChan)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("embedding worker stopped")
			return
		case <-ticker.C:
			w.backfillBatch()
		}
	}
}

func (w *EmbeddingWorker) backfillBatch() {
	ctx, cancel := context.WithTimeout(context.Background(), w.interval)
	defer cancel()

	events, err := w.eventRepo.GetMissingEmbedding(ctx, w.batchSize)
	if err != nil {
		w.logger.WithField("error", err.Error()).Error("failed to list events missing embedding")
		return
	}
	if len(events) == 0 {
		return
	}

	var done int
	for _, event := range events {
		text := strings.TrimSpace(event.Title + "\n" + event.Description)
		vector, err := w.embedder.Embed(ctx, text)
		if err != nil {
			// Dependency is down; the next sweep picks the batch up again
			w.logger.WithFields(logrus.Fields{
				"event_id": event.ID,
				"error":    err.Error(),
			}).Warn("failed to generate embedding")
			return
		}

		if err := w.eventRepo.UpdateEmbedding(ctx, event.ID, vector); err != nil {
			w.logger.WithFields(logrus.Fields{
				"event_id": event.ID,
				"error":    err.Error(),
			}).Error("failed to store embedding")
			continue
		}
		done++
	}

	w.logger.WithFields(logrus.Fields{
		"batch": len(events),
		"done":  done,
	}).Info("embedding backfill batch completed")
}
