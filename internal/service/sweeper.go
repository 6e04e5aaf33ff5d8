package service

import (
	"context"
	"errors"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shinyyama/scrap-exchange/internal/event"
	"github.com/shinyyama/scrap-exchange/internal/metrics"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/repository"
)

const sweepBatchSize = 200

type SweeperOptions struct {
	Window              time.Duration
	Timeout             time.Duration
	ResetPriceOnRelease bool
	Now                 func() time.Time
}

// Sweeper expires pending transactions older than the window and puts their
// listings back on the market.
type Sweeper struct {
	txs        repository.TransactionRepository
	transactor repository.Transactor
	pub        event.Publisher
	window     time.Duration
	timeout    time.Duration
	resetPrice bool
	now        func() time.Time

	running atomic.Bool
	wg      sync.WaitGroup
}

func NewSweeper(txs repository.TransactionRepository, transactor repository.Transactor, pub event.Publisher, opts SweeperOptions) *Sweeper {
	if pub == nil {
		pub = event.Discard
	}
	if opts.Window <= 0 {
		opts.Window = 7 * 24 * time.Hour
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	return &Sweeper{
		txs:        txs,
		transactor: transactor,
		pub:        pub,
		window:     opts.Window,
		timeout:    opts.Timeout,
		resetPrice: opts.ResetPriceOnRelease,
		now:        clockOrDefault(opts.Now),
	}
}

// SweepExpired reverts every pending transaction created before now-window.
// Transactions that are already terminal are left alone, so running it twice
// is the same as running it once. It returns how many were expired.
func (s *Sweeper) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	cutoff := now.Add(-s.window)
	reverted := 0
	var firstErr error
	for {
		batch, err := s.txs.ListPendingCreatedBefore(ctx, cutoff, sweepBatchSize)
		if err != nil {
			metrics.SweepErrors.Inc()
			return reverted, storeErr(err)
		}
		progress := 0
		for i := range batch {
			t := &batch[i]
			err := closePending(ctx, s.transactor, t, model.TransactionStatusExpired, now, s.resetPrice)
			if errors.Is(err, ErrNotFound) {
				continue
			}
			if err != nil {
				metrics.SweepErrors.Inc()
				log.Printf("[sweep] tx=%s listing=%s stage=expire_fail err=%v", t.ID, t.ListingID, err)
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			progress++
			metrics.SweepReverted.Inc()
			s.pub.Publish(event.Event{
				Type:          event.PurchaseExpired,
				ListingID:     t.ListingID,
				TransactionID: t.ID,
				BuyerID:       t.BuyerID,
				SellerID:      t.SellerID,
				Amount:        t.Amount,
				PaymentMethod: string(t.PaymentMethod),
				At:            now,
			})
		}
		reverted += progress
		if len(batch) < sweepBatchSize || progress == 0 {
			break
		}
	}
	return reverted, firstErr
}

// Kick starts a sweep in the background and returns immediately. Kicks that
// arrive while a sweep is running are folded into it. Failures are logged.
func (s *Sweeper) Kick() {
	if !s.running.CompareAndSwap(false, true) {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		n, err := s.SweepExpired(ctx, s.now())
		if err != nil {
			log.Printf("[sweep] stage=kick_fail reverted=%d err=%v", n, err)
			return
		}
		if n > 0 {
			log.Printf("[sweep] stage=kick_done reverted=%d", n)
		}
	}()
}

// Wait blocks until background sweeps started by Kick have finished.
func (s *Sweeper) Wait() {
	s.wg.Wait()
}

// Run sweeps every interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runCtx, cancel := context.WithTimeout(ctx, s.timeout)
			n, err := s.SweepExpired(runCtx, s.now())
			cancel()
			if err != nil {
				log.Printf("[sweep] stage=tick_fail reverted=%d err=%v", n, err)
			} else if n > 0 {
				log.Printf("[sweep] stage=tick_done reverted=%d", n)
			}
		}
	}
}
