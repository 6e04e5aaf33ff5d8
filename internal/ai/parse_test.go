package ai

import (
	"strings"
	"testing"
)

func TestParseCO2(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"basic int", "$40$", 40, false},
		{"decimal", "value is $12.5$", 12.5, false},
		{"no match", "nothing here", 0, true},
		{"multiple", "$1$ and $2$", 1, false},
		{"fallback longest", "about 1250 kgCO2e for 3 kg", 1250, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCO2(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("got=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestParseCO2Kg(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    float64
		wantErr bool
	}{
		{"envelope is kg", "$12.5$", 12.5, false},
		{"grams", "300 gCO2e", 0.3, false},
		{"kilograms", "42 kgCO2e", 42, false},
		{"tonnes", "2 t", 2000, false},
		{"unknown unit", "5 miles", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCO2Kg(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("err=%v wantErr=%v", err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Fatalf("got=%v want=%v", got, tt.want)
			}
		})
	}
}

func TestBuildCO2Prompt(t *testing.T) {
	p := BuildCO2Prompt("Aluminium cans", "crushed, clean", "Metal", 12)
	if !strings.Contains(p, "aluminium avoids") {
		t.Fatalf("metal hint missing: %s", p)
	}
	if !strings.Contains(p, "Weight: 12.00 kg") {
		t.Fatalf("weight missing: %s", p)
	}
	if strings.Contains(BuildCO2Prompt("x", "y", "Rubber", 1), "Reference:") {
		t.Fatal("unknown category should have no hint")
	}
}
