/*
scheduler.go - Automated term-transition scheduler

PURPOSE:
  Periodically runs the two batch engines: term rollover when the
  current term has ended, and year-end grade promotion on December 31.
  Both engines carry their own idempotency guards, so a tick that finds
  nothing to do is cheap and harmless.

DESIGN:
  - Runs a background goroutine with configurable check interval
  - Rollover fires only once per term (watermark inside the engine)
  - Promotion fires only on Dec 31 and only once per year
  - "Already done" and "nothing to do" outcomes are logged, never fatal

CONFIGURATION:
  - CheckInterval: How often to check (default: 1 hour)
  - Enabled: Whether scheduler is active (default: true)

USAGE:
  scheduler := NewTransitionScheduler(store)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - handlers.go: TriggerRollover / TriggerPromotion (manual runs)
  - finance/rollover.go: RolloverEngine
  - finance/promotion.go: PromotionEngine
*/
package api

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/shulepay/school-ledger/finance"
)

// TransitionScheduler drives automated term rollover and grade promotion.
type TransitionScheduler struct {
	Store         finance.TxStore
	CheckInterval time.Duration
	Enabled       bool

	rollover  *finance.RolloverEngine
	promotion *finance.PromotionEngine

	ticker *time.Ticker
	stop   chan bool
	wg     sync.WaitGroup
	mu     sync.Mutex
}

// NewTransitionScheduler creates a new scheduler over the given store.
func NewTransitionScheduler(store finance.TxStore) *TransitionScheduler {
	return &TransitionScheduler{
		Store:         store,
		CheckInterval: 1 * time.Hour,
		Enabled:       true,
		rollover:      finance.NewRolloverEngine(store),
		promotion:     finance.NewPromotionEngine(store, finance.DefaultPromotionTable()),
		stop:          make(chan bool),
	}
}

// Start begins the scheduler.
func (ts *TransitionScheduler) Start() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if !ts.Enabled {
		log.Println("[Scheduler] Disabled, not starting")
		return
	}

	ts.ticker = time.NewTicker(ts.CheckInterval)
	ts.wg.Add(1)

	go ts.run()

	log.Printf("[Scheduler] Started with check interval: %v", ts.CheckInterval)
}

// Stop stops the scheduler.
func (ts *TransitionScheduler) Stop() {
	ts.mu.Lock()
	defer ts.mu.Unlock()

	if ts.ticker != nil {
		ts.ticker.Stop()
		close(ts.stop)
		ts.wg.Wait()
		log.Println("[Scheduler] Stopped")
	}
}

func (ts *TransitionScheduler) run() {
	defer ts.wg.Done()

	// Run immediately on start
	ts.checkAndProcess()

	for {
		select {
		case <-ts.ticker.C:
			ts.checkAndProcess()
		case <-ts.stop:
			return
		}
	}
}

func (ts *TransitionScheduler) checkAndProcess() {
	ctx := context.Background()
	today := finance.Today()

	log.Printf("[Scheduler] Checking for term transitions at %s", today)

	ts.checkRollover(ctx, today)
	ts.checkPromotion(ctx, today)
}

func (ts *TransitionScheduler) checkRollover(ctx context.Context, today finance.Date) {
	report, err := ts.rollover.RolloverTerm(ctx, today)
	switch {
	case errors.Is(err, finance.ErrAlreadyRolledOver):
		// Expected on every tick between term boundaries
		return
	case errors.Is(err, finance.ErrNextTermNotConfigured):
		log.Printf("[Scheduler] Rollover waiting: %v", err)
		return
	case err != nil:
		log.Printf("[Scheduler] Rollover failed: %v", err)
		return
	}

	if report.NoCurrentTerm {
		return
	}
	log.Printf("[Scheduler] Rollover completed: closed=%s opened=%s processed=%d missing_fee=%d",
		report.ClosedTermID, report.OpenedTermID, report.StudentsProcessed, len(report.MissingFee))
}

func (ts *TransitionScheduler) checkPromotion(ctx context.Context, today finance.Date) {
	report, err := ts.promotion.PromoteStudents(ctx, today, false)
	switch {
	case errors.Is(err, finance.ErrAlreadyPromoted):
		return
	case err != nil:
		log.Printf("[Scheduler] Promotion failed: %v", err)
		return
	}

	if report.Skipped {
		return
	}
	log.Printf("[Scheduler] Promotion completed: year=%d promoted=%d unpromotable=%d",
		report.Year, report.Promoted, len(report.Unpromotable))
}

// RunNow triggers an immediate check (for testing/admin).
func (ts *TransitionScheduler) RunNow() {
	ts.checkAndProcess()
}

// GetNextRunTime returns when the next scheduled check will occur.
func (ts *TransitionScheduler) GetNextRunTime() time.Time {
	return time.Now().Add(ts.CheckInterval)
}
