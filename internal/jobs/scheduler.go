package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/medismart/medismart-backend/internal/metrics"
	"github.com/medismart/medismart-backend/internal/middleware"
	"github.com/medismart/medismart-backend/internal/services"
)

const (
	limiterCleanupSchedule = "@every 10m"
	limiterMaxIdle         = 30 * time.Minute
	jobTimeout             = time.Minute
)

// Scheduler runs the periodic maintenance jobs
type Scheduler struct {
	cron      *cron.Cron
	catalog   *services.CatalogService
	limiter   *middleware.RateLimiter
	logger    *logrus.Logger
	threshold int
}

// NewScheduler creates a scheduler; jobs are registered by Start
func NewScheduler(catalog *services.CatalogService, limiter *middleware.RateLimiter, logger *logrus.Logger, lowStockThreshold int) *Scheduler {
	return &Scheduler{
		cron:      cron.New(),
		catalog:   catalog,
		limiter:   limiter,
		logger:    logger,
		threshold: lowStockThreshold,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start(stockReportSchedule string) error {
	if _, err := s.cron.AddFunc(stockReportSchedule, s.ReportLowStock); err != nil {
		return fmt.Errorf("invalid stock report schedule %q: %w", stockReportSchedule, err)
	}
	if _, err := s.cron.AddFunc(limiterCleanupSchedule, s.CleanupLimiter); err != nil {
		return fmt.Errorf("invalid limiter cleanup schedule: %w", err)
	}

	s.cron.Start()
	s.logger.Infof("⏰ Scheduled jobs started (stock report: %s)", stockReportSchedule)
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info("⏹️  Scheduled jobs stopped")
}

// ReportLowStock logs every medicine below the threshold
func (s *Scheduler) ReportLowStock() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	medicines, err := s.catalog.LowStock(ctx, s.threshold)
	if err != nil {
		s.logger.WithError(err).Error("Low stock report failed")
		return
	}
	metrics.SetLowStockMedicines(len(medicines))

	if len(medicines) == 0 {
		s.logger.Info("Low stock report: all medicines above threshold")
		return
	}
	for _, m := range medicines {
		s.logger.WithFields(logrus.Fields{
			"medicine_id":    m.ID,
			"name":           m.Name,
			"stock_quantity": m.StockQuantity,
			"threshold":      s.threshold,
		}).Warn("⚠️  Medicine running low on stock")
	}
}

// CleanupLimiter evicts idle rate limiter entries
func (s *Scheduler) CleanupLimiter() {
	if removed := s.limiter.Cleanup(limiterMaxIdle); removed > 0 {
		s.logger.Debugf("Evicted %d idle rate limiter entries", removed)
	}
}
