package ai

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/shinyyama/scrap-exchange/internal/co2ctx"
	"google.golang.org/genai"
)

const defaultCO2Model = "gemini-2.5-flash"

// CO2Client estimates CO2 saved by recycling a listing through Gemini.
type CO2Client struct {
	apiKey  string
	model   string
	timeout time.Duration
}

func NewCO2Client(apiKey, model string) *CO2Client {
	if model == "" {
		model = defaultCO2Model
	}
	return &CO2Client{apiKey: apiKey, model: model, timeout: 20 * time.Second}
}

// Estimate returns the estimated kgCO2e avoided by recycling the material.
func (c *CO2Client) Estimate(ctx context.Context, title, description, category string, weightKg float64) (float64, error) {
	if c == nil {
		return 0, errors.New("co2 client is nil")
	}
	if c.apiKey == "" {
		return 0, errors.New("GEMINI_API_KEY is not set")
	}
	rid := co2ctx.RID(ctx)
	listingID := co2ctx.ListingID(ctx)
	start := time.Now()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  c.apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		log.Printf("[co2] rid=%s listing=%s stage=client_init err=%v", rid, listingID, err)
		return 0, err
	}

	parts := []*genai.Part{
		genai.NewPartFromText(BuildCO2Prompt(title, description, category, weightKg)),
	}
	contents := []*genai.Content{
		genai.NewContentFromParts(parts, genai.RoleUser),
	}
	temp := float32(0)
	config := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	log.Printf("[co2] rid=%s listing=%s stage=gemini_start model=%s", rid, listingID, c.model)
	genStart := time.Now()
	res, err := client.Models.GenerateContent(ctx, c.model, contents, config)
	if err != nil {
		log.Printf("[co2] rid=%s listing=%s stage=gemini_fail model=%s err=%v", rid, listingID, c.model, err)
		return 0, fmt.Errorf("gemini generate: %w", err)
	}
	genDur := time.Since(genStart)
	rawText := res.Text()
	log.Printf("[co2] rid=%s listing=%s stage=gemini_done genMs=%d len=%d", rid, listingID, genDur.Milliseconds(), len(rawText))

	val, err := ParseCO2Kg(rawText)
	if err != nil {
		log.Printf("[co2] rid=%s listing=%s stage=parse_fail text=%q err=%v", rid, listingID, truncate(strings.ReplaceAll(rawText, "\n", " "), 80), err)
		return 0, err
	}
	log.Printf("[co2] rid=%s listing=%s stage=parse_ok value=%.3f totalMs=%d", rid, listingID, val, time.Since(start).Milliseconds())
	return val, nil
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
