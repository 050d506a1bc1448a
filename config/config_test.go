package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") failed: %v", err)
	}

	if cfg.World.Size != 625 || cfg.World.Cells != 125 {
		t.Errorf("world = %d/%d, want 625/125", cfg.World.Size, cfg.World.Cells)
	}
	if cfg.Being.StartCount != 100 {
		t.Errorf("start_count = %d, want 100", cfg.Being.StartCount)
	}
	if cfg.Evolution.ReworldThreshold != 40 {
		t.Errorf("reworld_threshold = %d, want 40", cfg.Evolution.ReworldThreshold)
	}
	if cfg.Derived.CellSize32 != 5 {
		t.Errorf("cell size = %v, want 5", cfg.Derived.CellSize32)
	}
	if cfg.Derived.FOV32 != 50 {
		t.Errorf("fov = %v, want 50", cfg.Derived.FOV32)
	}
	if cfg.Derived.StatsTicks != 600 {
		t.Errorf("stats ticks = %d, want 600", cfg.Derived.StatsTicks)
	}
}

func TestLoadOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	overlay := "being:\n  start_count: 12\nevolution:\n  max_food: 90\n"
	if err := os.WriteFile(path, []byte(overlay), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Being.StartCount != 12 {
		t.Errorf("start_count = %d, want 12", cfg.Being.StartCount)
	}
	if cfg.Evolution.MaxFood != 90 {
		t.Errorf("max_food = %d, want 90", cfg.Evolution.MaxFood)
	}
	// Untouched keys keep their defaults
	if cfg.Being.StartEnergy != 10 {
		t.Errorf("start_energy = %v, want 10", cfg.Being.StartEnergy)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"indivisible world", func(c *Config) { c.World.Cells = 124 }, "divisible"},
		{"radius too large", func(c *Config) { c.Being.Radius = 5 }, "cell size"},
		{"bad mode", func(c *Config) { c.Neural.Mode = "attention" }, "neural.mode"},
		{"min above max food", func(c *Config) { c.Evolution.MinFood = 800 }, "min_food"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatal(err)
			}
			tt.mutate(cfg)
			err = cfg.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestWriteYAMLRoundTrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Being.ScatterCount = 7

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Being.ScatterCount != 7 {
		t.Errorf("scatter_count = %d, want 7", loaded.Being.ScatterCount)
	}
	if loaded.Derived != cfg.Derived {
		t.Errorf("derived mismatch: %+v vs %+v", loaded.Derived, cfg.Derived)
	}
}

func TestCfgPanicsBeforeInit(t *testing.T) {
	saved := global
	global = nil
	defer func() {
		global = saved
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	Cfg()
}
