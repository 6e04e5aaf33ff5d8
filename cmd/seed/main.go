package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/shinyyama/scrap-exchange/internal/config"
	"github.com/shinyyama/scrap-exchange/internal/db"
	"github.com/shinyyama/scrap-exchange/internal/media"
	"github.com/shinyyama/scrap-exchange/internal/model"
	"github.com/shinyyama/scrap-exchange/internal/repository"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type seedListing struct {
	Title       string
	Description string
	Category    string
	WeightKg    float64
	Price       string
	Location    string
}

func main() {
	if err := run(); err != nil {
		log.Fatalf("seed failed: %v", err)
	}
}

func run() error {
	ctx := context.Background()
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	gdb, err := db.Connect(cfg)
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	if err := db.Migrate(gdb); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	canSeed, err := shouldSeed(ctx, gdb)
	if err != nil {
		return err
	}
	if !canSeed {
		log.Printf("listings already exist; skipping seed (set FORCE_SEED=true to override)")
		return nil
	}

	var store *media.GCSStore
	if cfg.StorageBucket != "" {
		store, err = media.NewGCSStore(ctx, cfg.StorageBucket, cfg.SignedURLTTL)
		if err != nil {
			return fmt.Errorf("storage client: %w", err)
		}
		defer store.Close()
	}

	sellerID := envOr("SEED_SELLER_ID", "seed-seller")
	payees := repository.NewPayeeRepository(gdb)
	if err := payees.Upsert(ctx, &model.PayeeProfile{UserID: sellerID, UPIHandle: envOr("SEED_UPI_HANDLE", "seedseller@upi")}); err != nil {
		return fmt.Errorf("seed payee: %w", err)
	}

	listings := repository.NewListingRepository(gdb)
	seeds := buildSeedListings()
	for idx, s := range seeds {
		l := &model.Listing{
			ID:            uuid.NewString(),
			SellerID:      sellerID,
			Title:         s.Title,
			Description:   s.Description,
			Category:      s.Category,
			WeightKg:      s.WeightKg,
			ExpectedPrice: decimal.RequireFromString(s.Price),
			Status:        model.ListingStatusAvailable,
		}
		loc := s.Location
		l.Location = &loc
		ref := placeholderURL(s.Category, idx+1)
		if store != nil {
			if uploaded, err := uploadPlaceholder(ctx, store, ref, s.Category, idx+1); err != nil {
				log.Printf("[seed] listing=%q stage=upload_fail err=%v", s.Title, err)
			} else {
				ref = uploaded
			}
		}
		l.ImageRef = &ref
		if err := listings.Create(ctx, l); err != nil {
			return fmt.Errorf("insert listing %q: %w", s.Title, err)
		}
	}

	log.Printf("seeded %d listings for seller %s", len(seeds), sellerID)
	return nil
}

func buildSeedListings() []seedListing {
	type cat struct {
		Name     string
		PerKg    int64
		Location string
		Titles   []string
	}
	categories := []cat{
		{Name: "Metal", PerKg: 120, Location: "Pune", Titles: []string{"Aluminium cans, crushed", "Copper wire offcuts", "Steel shelving frames"}},
		{Name: "Plastic", PerKg: 18, Location: "Mumbai", Titles: []string{"PET bottles, baled", "HDPE crates", "LDPE film rolls"}},
		{Name: "Paper", PerKg: 9, Location: "Bengaluru", Titles: []string{"Corrugated cardboard", "Office paper shred", "Newspaper bundles"}},
		{Name: "Glass", PerKg: 4, Location: "Chennai", Titles: []string{"Clear glass bottles", "Green glass jars"}},
		{Name: "Electronics", PerKg: 250, Location: "Hyderabad", Titles: []string{"Old laptop motherboards", "Mixed phone chargers"}},
		{Name: "Textile", PerKg: 25, Location: "Surat", Titles: []string{"Cotton fabric offcuts", "Denim scraps"}},
	}

	var out []seedListing
	for _, c := range categories {
		for i, t := range c.Titles {
			weight := float64(5 * (i + 1) * 2)
			price := decimal.NewFromInt(c.PerKg).Mul(decimal.NewFromFloat(weight))
			out = append(out, seedListing{
				Title:       t,
				Description: fmt.Sprintf("%s (%s). Sorted and dry, pickup from %s.", t, strings.ToLower(c.Name), c.Location),
				Category:    c.Name,
				WeightKg:    weight,
				Price:       price.StringFixed(2),
				Location:    c.Location,
			})
		}
	}
	return out
}

func shouldSeed(ctx context.Context, gdb *gorm.DB) (bool, error) {
	var cnt int64
	if err := gdb.WithContext(ctx).Model(&model.Listing{}).Count(&cnt).Error; err != nil {
		return false, fmt.Errorf("count listings: %w", err)
	}
	if cnt == 0 {
		return true, nil
	}
	return strings.EqualFold(os.Getenv("FORCE_SEED"), "true"), nil
}

func uploadPlaceholder(ctx context.Context, store *media.GCSStore, url, category string, idx int) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("placeholder status %d", resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", err
	}
	return store.Upload(ctx, fmt.Sprintf("%s-%d.jpg", strings.ToLower(category), idx), "image/jpeg", data)
}

func placeholderURL(slug string, idx int) string {
	return fmt.Sprintf("https://picsum.photos/seed/%s-%d/600/600", strings.ToLower(slug), idx)
}

func envOr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}
