package service

import (
	"context"
	"errors"
	"testing"

	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shopspring/decimal"
)

func floatPtr(v float64) *float64 { return &v }
func strPtr(v string) *string { return &v }

func TestListingInputValidation(t *testing.T) {
	valid := func() ListingInput {
		return ListingInput{Title: "Cans", Category: "Metal", WeightKg: 5, ExpectedPrice: decimal.NewFromInt(10)}
	}
	tests := []struct {
		name    string
		mutate  func(in *ListingInput)
		wantErr bool
	}{
		{"ok", func(in *ListingInput) {}, false},
		{"blank title", func(in *ListingInput) { in.Title = "   " }, true},
		{"no category", func(in *ListingInput) { in.Category = "" }, true},
		{"zero weight", func(in *ListingInput) { in.WeightKg = 0 }, true},
		{"negative price", func(in *ListingInput) { in.ExpectedPrice = decimal.NewFromInt(-1) }, true},
		{"data uri image", func(in *ListingInput) { in.ImageRef = strPtr("data:image/png;base64,AAAA") }, true},
		{"lat without lng", func(in *ListingInput) { in.LocationLat = floatPtr(18.5) }, true},
		{"lat out of range", func(in *ListingInput) { in.LocationLat, in.LocationLng = floatPtr(91), floatPtr(0) }, true},
		{"blank image dropped", func(in *ListingInput) { in.ImageRef = strPtr("  ") }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			err := in.normalize()
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("err=%v want ErrInvalidInput", err)
			}
		})
	}
}

func TestCreateListingStartsAvailable(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	l := env.createListing(t, "seller-1", "  Cardboard  ", "12.50")
	if l.Title != "Cardboard" {
		t.Fatalf("title=%q", l.Title)
	}
	got := env.listing(t, l.ID)
	if got.Status != model.ListingStatusAvailable || got.ActualPrice.Valid {
		t.Fatalf("status=%s actual=%v", got.Status, got.ActualPrice)
	}
	if !got.ExpectedPrice.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("expected price=%s", got.ExpectedPrice)
	}
}

func TestUpdateListingRules(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	l := env.createListing(t, "seller-1", "Copper", "300")
	in := ListingInput{Title: "Copper pipe", Category: "Metal", WeightKg: 12, ExpectedPrice: decimal.NewFromInt(320)}

	if _, err := env.listingSvc.Update(ctx, "seller-2", l.ID, in); !errors.Is(err, ErrForbidden) {
		t.Fatalf("err=%v want ErrForbidden", err)
	}
	updated, err := env.listingSvc.Update(ctx, "seller-1", l.ID, in)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Copper pipe" || updated.WeightKg != 12 {
		t.Fatalf("updated=%+v", updated)
	}

	tx, err := env.purchases.Initiate(ctx, l.ID, "buyer-1", model.PaymentMethodCash)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := env.payments.Complete(ctx, tx.ID, "buyer-1", Proof{}); err != nil {
		t.Fatalf("complete: %v", err)
	}
	if _, err := env.listingSvc.Update(ctx, "seller-1", l.ID, in); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("edit sold err=%v want ErrInvalidInput", err)
	}
}

func TestMarketStats(t *testing.T) {
	env := newTestEnv(t, envOptions{})
	ctx := context.Background()
	a := env.createListing(t, "seller-1", "Cans", "100")
	env.createListing(t, "seller-1", "Bottles", "40")
	tx, err := env.purchases.Initiate(ctx, a.ID, "buyer-1", model.PaymentMethodCash)
	if err != nil {
		t.Fatalf("initiate: %v", err)
	}
	if _, err := env.payments.Complete(ctx, tx.ID, "buyer-1", Proof{}); err != nil {
		t.Fatalf("complete: %v", err)
	}

	st, err := env.listingSvc.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Listings[model.ListingStatusSold] != 1 || st.Listings[model.ListingStatusAvailable] != 1 {
		t.Fatalf("listings=%v", st.Listings)
	}
	if st.Transactions != 1 {
		t.Fatalf("transactions=%d want 1", st.Transactions)
	}
	if !st.CompletedRevenue.Equal(decimal.NewFromInt(100)) {
		t.Fatalf("revenue=%s want 100", st.CompletedRevenue)
	}
}
