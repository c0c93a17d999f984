package processor

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"househunt/config"
	"househunt/internal/database"
	"househunt/internal/metrics"
	"househunt/internal/models"
	"househunt/internal/queue"
)

// Transactor is the part of *gorm.DB the processor needs
type Transactor interface {
	Transaction(fc func(tx *gorm.DB) error, opts ...*sql.TxOptions) error
}

// CriteriaSource supplies the criteria scores are computed against
type CriteriaSource interface {
	GetAllCriteria() ([]models.Criterion, error)
}

// PropertyIterator walks every stored property in batches
type PropertyIterator interface {
	EachPropertyBatch(batchSize int, fn func([]models.Property) error) error
}

// BatchProcessor recomputes cached scores for queued property batches
type BatchProcessor struct {
	db       Transactor
	criteria CriteriaSource
	logger   *logrus.Logger
	config   *config.Config
	queue    *queue.PropertyQueue
	metrics  *metrics.Metrics
	ctx      context.Context
	cancel   context.CancelFunc
}

// NewBatchProcessor creates a new batch processor instance
func NewBatchProcessor(db Transactor, criteria CriteriaSource, q *queue.PropertyQueue, cfg *config.Config, m *metrics.Metrics, logger *logrus.Logger) *BatchProcessor {
	ctx, cancel := context.WithCancel(context.Background())
	return &BatchProcessor{
		db:       db,
		criteria: criteria,
		queue:    q,
		config:   cfg,
		metrics:  m,
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Start subscribes to the queue and launches its workers
func (p *BatchProcessor) Start() {
	p.queue.Subscribe(func(batch queue.Batch) error {
		_, err := p.processBatch(batch)
		return err
	})
	p.queue.Start(p.config.BatchProcessing.ProcessorCount)
}

// Stop aborts pending retries and waits for the workers to exit
func (p *BatchProcessor) Stop() {
	p.cancel()
	p.queue.Close()
}

// Rescore processes a batch synchronously and returns the scores written
func (p *BatchProcessor) Rescore(batch queue.Batch) (map[int64]int, error) {
	return p.processBatch(batch)
}

// processBatch scores a batch against the current criteria and persists the
// result in one transaction, retrying on failure. Ratings are read inside the
// transaction so updates made after the batch was queued are honoured.
func (p *BatchProcessor) processBatch(batch queue.Batch) (map[int64]int, error) {
	criteria, err := p.criteria.GetAllCriteria()
	if err != nil {
		p.recordBatch(false)
		return nil, fmt.Errorf("failed to load criteria: %w", err)
	}
	set := models.CriteriaSet(criteria)
	var scores map[int64]int

	maxRetries := p.config.BatchProcessing.MaxRetries
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			p.logger.WithFields(logrus.Fields{
				"batch_id": batch.ID,
				"attempt":  attempt,
			}).Infof("Retrying batch processing, attempt %d of %d", attempt, maxRetries)

			select {
			case <-p.ctx.Done():
				p.recordBatch(false)
				return nil, fmt.Errorf("batch %s cancelled: %w", batch.ID, p.ctx.Err())
			case <-time.After(p.config.RetryDelay()):
			}
		}

		scoredAt := time.Now()
		err = p.db.Transaction(func(tx *gorm.DB) error {
			rescored, err := database.RescoreProperties(tx, batch.PropertyIDs, set, scoredAt)
			if err != nil {
				return fmt.Errorf("failed to update scores batch: %w", err)
			}
			scores = rescored
			return nil
		})

		if err == nil {
			p.logger.WithFields(logrus.Fields{
				"batch_id":   batch.ID,
				"batch_size": len(batch.PropertyIDs),
				"queued_for": time.Since(batch.EnqueuedAt).String(),
			}).Info("Successfully rescored batch")
			p.recordBatch(true)
			if p.metrics != nil {
				for _, score := range scores {
					p.metrics.ObserveScore(metrics.SourceBatch, score)
				}
			}
			return scores, nil
		}

		p.logger.WithError(err).WithField("batch_id", batch.ID).Error("Batch processing failed")
	}

	p.recordBatch(false)
	return nil, fmt.Errorf("failed to process batch after %d attempts: %w", maxRetries+1, err)
}

func (p *BatchProcessor) recordBatch(ok bool) {
	if p.metrics != nil {
		p.metrics.BatchProcessed(ok)
	}
}

// EnqueueAll splits every stored property into batches of batchSize and
// pushes them onto q. It stops at the first push error.
func EnqueueAll(props PropertyIterator, q *queue.PropertyQueue, batchSize int) (batches, properties int, err error) {
	err = props.EachPropertyBatch(batchSize, func(chunk []models.Property) error {
		if err := q.Push(queue.NewBatch(models.PropertyIDs(chunk))); err != nil {
			return err
		}
		batches++
		properties += len(chunk)
		return nil
	})
	return batches, properties, err
}
