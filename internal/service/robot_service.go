package service

import (
	"context"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"pilgrimtrader/configs"
	"pilgrimtrader/internal/domain"
	"pilgrimtrader/internal/usecase"
)

// Simulated price movement for robot evaluations: a bounded random walk,
// skewed slightly upward, plus a constant favorable bias.
const (
	robotWalkRange  = 0.0020
	robotWalkSkew   = 0.4
	robotProfitBias = 0.0003
)

// RobotService runs the autonomous trading loop: at most one bounded,
// cancellable cycle per user at a time.
type RobotService struct {
	trading   *usecase.TradingService
	userRepo  domain.UserRepository
	tradeRepo domain.TradeRepository
	market    *MarketService
	cfg       configs.RobotConfig

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup

	rngMu sync.Mutex
	rng   *rand.Rand
}

// NewRobotService creates a new RobotService
func NewRobotService(
	trading *usecase.TradingService,
	userRepo domain.UserRepository,
	tradeRepo domain.TradeRepository,
	market *MarketService,
	cfg configs.RobotConfig,
	seed int64,
) *RobotService {
	return &RobotService{
		trading:   trading,
		userRepo:  userRepo,
		tradeRepo: tradeRepo,
		market:    market,
		cfg:       cfg,
		running:   make(map[uuid.UUID]context.CancelFunc),
		rng:       rand.New(rand.NewSource(seed)),
	}
}

// Start launches the robot trading loop for the user. A second start while
// a loop is running, or while the user still has an active robot trade,
// fails with ErrRobotAlreadyActive.
func (s *RobotService) Start(ctx context.Context, userID uuid.UUID) error {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return err
	}

	active, err := s.tradeRepo.HasActiveRobotTrade(ctx, userID)
	if err != nil {
		return err
	}
	if active {
		return domain.ErrRobotAlreadyActive
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.running[userID]; ok {
		return domain.ErrRobotAlreadyActive
	}

	// The loop outlives the request; it is cancelled via Stop or Shutdown.
	loopCtx, cancel := context.WithCancel(context.Background())
	s.running[userID] = cancel

	s.wg.Add(1)
	go s.run(loopCtx, userID)

	log.Printf("[OK] Robot trading started for user %s", userID)
	return nil
}

// Stop cancels the user's robot trading loop. A fired-but-unprocessed
// evaluation observes the cancellation before mutating any further state.
func (s *RobotService) Stop(userID uuid.UUID) error {
	s.mu.Lock()
	cancel, ok := s.running[userID]
	s.mu.Unlock()
	if !ok {
		return domain.ErrNotFound
	}

	cancel()
	log.Printf("[OK] Robot trading stop requested for user %s", userID)
	return nil
}

// Running reports whether a robot loop is active for the user.
func (s *RobotService) Running(userID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[userID]
	return ok
}

// Shutdown cancels every loop and waits for them to exit.
func (s *RobotService) Shutdown() {
	s.mu.Lock()
	for _, cancel := range s.running {
		cancel()
	}
	s.mu.Unlock()
	s.wg.Wait()
}

func (s *RobotService) run(ctx context.Context, userID uuid.UUID) {
	defer func() {
		s.mu.Lock()
		delete(s.running, userID)
		s.mu.Unlock()
		s.wg.Done()
	}()

	for cycle := 0; cycle < s.cfg.MaxCycles; cycle++ {
		if ctx.Err() != nil {
			return
		}

		pair := s.market.RandomPair()
		direction := domain.DirectionSell
		if s.coinFlip() {
			direction = domain.DirectionBuy
		}
		entry := pair.SidePrice(direction)

		trade, err := s.trading.OpenTrade(ctx, userID, pair.Symbol, direction, s.cfg.LotSize, entry, domain.TradeModeRobot)
		if err != nil {
			log.Printf("ERROR: Robot failed to open trade for user %s: %v", userID, err)
			return
		}

		profit, err := s.monitor(ctx, trade, &pair)
		if err != nil {
			if ctx.Err() == nil {
				log.Printf("ERROR: Robot monitoring failed for user %s: %v", userID, err)
			}
			return
		}

		if profit <= s.cfg.LossThreshold {
			log.Printf("[WARN] Robot stop-loss for user %s on %s: %.4f", userID, trade.Symbol, profit)
			return
		}

		// Take-profit: reinvest while the balance stays positive.
		user, err := s.userRepo.GetByID(ctx, userID)
		if err != nil || user.Balance <= 0 {
			return
		}
		log.Printf("[OK] Robot cycle %d closed for user %s: +%.4f, reinvesting", cycle+1, userID, profit)
	}

	log.Printf("[OK] Robot cycle budget exhausted for user %s", userID)
}

// monitor re-evaluates the trade on a fixed interval until a threshold is
// crossed or the loop is cancelled. Returns the realized profit.
func (s *RobotService) monitor(ctx context.Context, trade *domain.Trade, pair *domain.Quote) (float64, error) {
	timer := time.NewTimer(s.cfg.EvalInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-timer.C:
			price := s.simulatePrice(trade, pair)
			profit := trade.ProfitAt(price)

			if profit >= s.cfg.ProfitThreshold || profit <= s.cfg.LossThreshold {
				if _, err := s.trading.CloseTrade(ctx, trade.ID, price); err != nil {
					return 0, err
				}
				return profit, nil
			}

			timer.Reset(s.cfg.EvalInterval)
		}
	}
}

func (s *RobotService) simulatePrice(trade *domain.Trade, pair *domain.Quote) float64 {
	s.rngMu.Lock()
	walk := (s.rng.Float64() - robotWalkSkew) * robotWalkRange
	s.rngMu.Unlock()

	if trade.Direction == domain.DirectionBuy {
		return pair.Ask + walk + robotProfitBias
	}
	return pair.Bid - walk - robotProfitBias
}

func (s *RobotService) coinFlip() bool {
	s.rngMu.Lock()
	defer s.rngMu.Unlock()
	return s.rng.Float64() > 0.5
}
