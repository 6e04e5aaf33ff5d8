package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shinyyama/scrap-exchange/internal/db"
	"github.com/shinyyama/scrap-exchange/internal/event"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []event.Event
}

func (p *recordingPublisher) Publish(ev event.Event) {
	p.mu.Lock()
	p.events = append(p.events, ev)
	p.mu.Unlock()
}

func (p *recordingPublisher) types() []event.Type {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]event.Type, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type testEnv struct {
	db         *gorm.DB
	clock      *fakeClock
	pub        *recordingPublisher
	listings   repository.ListingRepository
	txs        repository.TransactionRepository
	transactor repository.Transactor
	payees     PayeeService
	listingSvc ListingService
	purchases  PurchaseService
	payments   PaymentService
	views      ViewService
	sweeper    *Sweeper
}

type envOptions struct {
	resetPrice bool
	window     time.Duration
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	// one connection keeps the in-memory database alive and shared
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := db.Migrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return gdb
}

func newTestEnv(t *testing.T, opts envOptions) *testEnv {
	t.Helper()
	gdb := openTestDB(t)
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	pub := &recordingPublisher{}

	listings := repository.NewListingRepository(gdb)
	txs := repository.NewTransactionRepository(gdb)
	transactor := repository.NewTransactor(gdb, listings, txs)
	payees := NewPayeeService(repository.NewPayeeRepository(gdb))
	if opts.window == 0 {
		opts.window = 7 * 24 * time.Hour
	}
	sweeper := NewSweeper(txs, transactor, pub, SweeperOptions{
		Window:              opts.window,
		ResetPriceOnRelease: opts.resetPrice,
		Now:                 clock.Now,
	})
	return &testEnv{
		db:         gdb,
		clock:      clock,
		pub:        pub,
		listings:   listings,
		txs:        txs,
		transactor: transactor,
		payees:     payees,
		listingSvc: NewListingService(listings, txs, sweeper, pub, clock.Now),
		purchases: NewPurchaseService(listings, txs, transactor, payees, pub, PurchaseOptions{
			ResetPriceOnRelease: opts.resetPrice,
			Now:                 clock.Now,
		}),
		payments: NewPaymentService(txs, transactor, pub, clock.Now),
		views:    NewViewService(listings, txs),
		sweeper:  sweeper,
	}
}

func (e *testEnv) createListing(t *testing.T, sellerID, title, price string) *model.Listing {
	t.Helper()
	l, err := e.listingSvc.Create(context.Background(), sellerID, ListingInput{
		Title:         title,
		Description:   "sorted scrap",
		Category:      "Metal",
		WeightKg:      10,
		ExpectedPrice: decimal.RequireFromString(price),
	})
	if err != nil {
		t.Fatalf("create listing: %v", err)
	}
	return l
}

func (e *testEnv) listing(t *testing.T, id string) *model.Listing {
	t.Helper()
	l, err := e.listings.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find listing %s: %v", id, err)
	}
	return l
}

func (e *testEnv) transaction(t *testing.T, id string) *model.Transaction {
	t.Helper()
	tx, err := e.txs.FindByID(context.Background(), id)
	if err != nil {
		t.Fatalf("find transaction %s: %v", id, err)
	}
	return tx
}

func (e *testEnv) activeCount(t *testing.T, listingID string) int {
	t.Helper()
	list, err := e.txs.ListByListing(context.Background(), listingID)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	n := 0
	for _, tx := range list {
		if tx.Status == model.TransactionStatusPending || tx.Status == model.TransactionStatusCompleted {
			n++
		}
	}
	return n
}
