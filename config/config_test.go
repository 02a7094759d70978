package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":8080" {
		t.Errorf("expected default :8080, got %s", cfg.HTTPAddr)
	}
	if cfg.DefaultSymbol != "EUR/USD" || cfg.DefaultTimeframe != "1M" {
		t.Errorf("unexpected defaults: %s %s", cfg.DefaultSymbol, cfg.DefaultTimeframe)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("HTTP_ADDR", ":9999")
	t.Setenv("REDIS_DB", "3")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.HTTPAddr != ":9999" {
		t.Errorf("HTTP_ADDR not applied: %s", cfg.HTTPAddr)
	}
	if cfg.RedisDB != 3 {
		t.Errorf("REDIS_DB not applied: %d", cfg.RedisDB)
	}
}

func TestLoadCatalog_Default(t *testing.T) {
	catalog, err := LoadCatalog("")
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(catalog) != 5 {
		t.Fatalf("expected 5 built-in assets, got %d", len(catalog))
	}
	if catalog[0].Symbol != "EUR/USD" || catalog[0].BasePrice != 1.0854 {
		t.Errorf("unexpected first asset: %+v", catalog[0])
	}
}

func TestLoadCatalog_FromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assets.yaml")
	yaml := `assets:
  - symbol: "AUD/USD"
    name: "Australian Dollar / US Dollar"
    base_price: 0.6542
    day_change: -0.21
  - symbol: "SOL/USD"
    name: "Solana / US Dollar"
    base_price: 142.87
    day_change: 3.10
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}

	catalog, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	if len(catalog) != 2 {
		t.Fatalf("expected 2 assets, got %d", len(catalog))
	}
	if catalog[0].Symbol != "AUD/USD" || catalog[0].BasePrice != 0.6542 {
		t.Errorf("unexpected asset: %+v", catalog[0])
	}
	if catalog[1].DayChange != 3.10 {
		t.Errorf("day_change not parsed: %v", catalog[1].DayChange)
	}
}

func TestLoadCatalog_Invalid(t *testing.T) {
	dir := t.TempDir()

	missing := filepath.Join(dir, "nope.yaml")
	if _, err := LoadCatalog(missing); err == nil {
		t.Error("expected error for missing file")
	}

	empty := filepath.Join(dir, "empty.yaml")
	os.WriteFile(empty, []byte("assets: []\n"), 0o644)
	if _, err := LoadCatalog(empty); err == nil {
		t.Error("expected error for empty catalog")
	}

	bad := filepath.Join(dir, "bad.yaml")
	os.WriteFile(bad, []byte("assets:\n  - symbol: \"X\"\n    base_price: 0\n"), 0o644)
	if _, err := LoadCatalog(bad); err == nil {
		t.Error("expected error for non-positive base price")
	}
}
