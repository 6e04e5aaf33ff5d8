package co2ctx

import "context"

type ctxKey string

const (
	keyRID       ctxKey = "co2_rid"
	keyListingID ctxKey = "co2_listing_id"
)

// WithRID stores correlation id for CO2 estimation logs.
func WithRID(ctx context.Context, rid string) context.Context {
	return context.WithValue(ctx, keyRID, rid)
}

// RID returns correlation id if present.
func RID(ctx context.Context) string {
	v, _ := ctx.Value(keyRID).(string)
	return v
}

// WithListingID stores listing id for CO2 estimation logs.
func WithListingID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, keyListingID, id)
}

// ListingID returns listing id if present.
func ListingID(ctx context.Context) string {
	v, _ := ctx.Value(keyListingID).(string)
	return v
}
