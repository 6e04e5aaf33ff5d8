package service

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/shinyyama/scrap-exchange/internal/co2ctx"
	"github.com/shinyyama/scrap-exchange/internal/event"
	"github.com/shinyyama/scrap-exchange/internal/repository"
)

// CO2Estimator estimates kg of CO2e saved by recycling an item instead of
// producing it new.
type CO2Estimator interface {
	Estimate(ctx context.Context, title, description, category string, weightKg float64) (float64, error)
}

// NewCO2Recorder returns an event handler that stores a best-effort CO2
// estimate on newly created listings.
func NewCO2Recorder(listings repository.ListingRepository, est CO2Estimator) event.Handler {
	return func(ctx context.Context, ev event.Event) {
		if ev.Type != event.ListingCreated || est == nil {
			return
		}
		ctx = co2ctx.WithRID(ctx, uuid.NewString()[:8])
		ctx = co2ctx.WithListingID(ctx, ev.ListingID)
		l, err := listings.FindByID(ctx, ev.ListingID)
		if err != nil {
			log.Printf("[co2] listing=%s stage=load_fail err=%v", ev.ListingID, err)
			return
		}
		kg, err := est.Estimate(ctx, l.Title, l.Description, l.Category, l.WeightKg)
		if err != nil {
			log.Printf("[co2] listing=%s stage=estimate_fail err=%v", ev.ListingID, err)
			return
		}
		if kg <= 0 {
			return
		}
		if err := listings.SetCO2Saved(ctx, l.ID, kg); err != nil {
			log.Printf("[co2] listing=%s stage=save_fail err=%v", ev.ListingID, err)
		}
	}
}
