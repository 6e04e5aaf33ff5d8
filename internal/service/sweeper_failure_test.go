package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/shinyyama/scrap-exchange/internal/metrics"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/repository"
)

// brokenSweepRepo fails the expiration scan and defers everything else.
type brokenSweepRepo struct {
	repository.TransactionRepository
}

func (brokenSweepRepo) ListPendingCreatedBefore(ctx context.Context, cutoff time.Time, limit int) ([]model.Transaction, error) {
	return nil, errors.New("db down")
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	if err := c.Write(&m); err != nil {
		t.Fatalf("read counter: %v", err)
	}
	return m.GetCounter().GetValue()
}

func TestListMineSurvivesSweepFailure(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	env.createListing(t, "seller-1", "Cans", "100")
	env.createListing(t, "seller-1", "Wire", "250")

	sweeper := NewSweeper(brokenSweepRepo{env.txs}, env.transactor, env.pub, SweeperOptions{Now: env.clock.Now})
	svc := NewListingService(env.listings, env.txs, sweeper, env.pub, env.clock.Now)

	before := counterValue(t, metrics.SweepErrors)
	dash, err := svc.ListMine(ctx, "seller-1")
	if err != nil {
		t.Fatalf("list mine: %v", err)
	}
	sweeper.Wait()

	if dash == nil || len(dash.Listings) != 2 || dash.Stats.Available != 2 {
		t.Fatalf("dashboard=%+v", dash)
	}
	if got := counterValue(t, metrics.SweepErrors); got != before+1 {
		t.Fatalf("sweep errors=%v want %v", got, before+1)
	}

	// a direct sweep reports the classified failure
	if _, err := sweeper.SweepExpired(ctx, env.clock.Now()); !errors.Is(err, ErrStoreUnavailable) {
		t.Fatalf("sweep err=%v want ErrStoreUnavailable", err)
	}
}
