package config

import (
	"testing"
	"time"
)

func TestLoadSQLiteDefaults(t *testing.T) {
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "test.db")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ExpirationWindow != 7*24*time.Hour {
		t.Fatalf("window=%v want 168h", cfg.ExpirationWindow)
	}
	if cfg.SweepInterval != 0 {
		t.Fatalf("sweep interval=%v want disabled", cfg.SweepInterval)
	}
	if cfg.ResetPriceOnRelease {
		t.Fatal("price should be retained on release by default")
	}
	if cfg.Port != "8080" {
		t.Fatalf("port=%q", cfg.Port)
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"mysql without credentials", map[string]string{"DB_DRIVER": "mysql"}},
		{"unknown driver", map[string]string{"DB_DRIVER": "postgres"}},
		{"zero window", map[string]string{"DB_DRIVER": "sqlite", "EXPIRATION_WINDOW": "0s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}
