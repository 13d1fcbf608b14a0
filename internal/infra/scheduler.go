package infra

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"pilgrimtrader/configs"
	"pilgrimtrader/internal/service"
	"pilgrimtrader/internal/usecase"
)

// Scheduler manages scheduled tasks
type Scheduler struct {
	cron        *cron.Cron
	market      *service.MarketService
	integration *usecase.IntegrationService
	cfg         configs.MarketConfig
}

// NewScheduler creates a new scheduler
func NewScheduler(market *service.MarketService, integration *usecase.IntegrationService, cfg configs.MarketConfig) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		market:      market,
		integration: integration,
		cfg:         cfg,
	}
}

// Start registers the jobs and starts the cron loop
func (s *Scheduler) Start() error {
	log.Println("Starting scheduler...")

	// Market quotes walk once per refresh tick.
	_, err := s.cron.AddFunc(s.cfg.RefreshSpec, func() {
		s.market.Refresh()
	})
	if err != nil {
		return err
	}

	// Mirror remote platform transactions into the local ledger. A no-op
	// while no platform session is connected.
	_, err = s.cron.AddFunc(s.cfg.SyncSpec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
		defer cancel()

		if err := s.integration.SyncTransactions(ctx); err != nil {
			log.Printf("ERROR: Scheduled platform sync failed: %v", err)
		}
	})
	if err != nil {
		return err
	}

	s.cron.Start()
	log.Println("[OK] Scheduler started")
	return nil
}

// Stop stops the scheduler and waits for running jobs to finish
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("Scheduler stopped")
}
