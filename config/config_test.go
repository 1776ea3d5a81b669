package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load defaults: %v", err)
	}

	if cfg.Screen.Width != 1280 || cfg.Screen.Height != 720 {
		t.Errorf("expected 1280x720 screen, got %dx%d", cfg.Screen.Width, cfg.Screen.Height)
	}
	if cfg.Bangumi.PageSize != 50 {
		t.Errorf("expected bangumi page size 50, got %d", cfg.Bangumi.PageSize)
	}
	if cfg.Petals.Color != [3]uint8{255, 182, 193} {
		t.Errorf("unexpected petal color %v", cfg.Petals.Color)
	}
	if cfg.HTTP.Timeout != 10*time.Second {
		t.Errorf("expected 10s timeout, got %s", cfg.HTTP.Timeout)
	}
	if cfg.Profile.Name != "Koileo" || len(cfg.Profile.Links) == 0 {
		t.Errorf("unexpected profile %+v", cfg.Profile)
	}
	if cfg.Widgets.RefreshInterval != 5*time.Minute {
		t.Errorf("expected 5m widget refresh, got %s", cfg.Widgets.RefreshInterval)
	}
	if cfg.Derived.FrameTime != time.Second/60 {
		t.Errorf("expected frame time of 60fps, got %s", cfg.Derived.FrameTime)
	}
	if cfg.Derived.RotationRad < 0.78 || cfg.Derived.RotationRad > 0.79 {
		t.Errorf("expected ~pi/4 rotation, got %f", cfg.Derived.RotationRad)
	}
}

func TestLoadOverridesOnlyPresentFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("codeforces:\n  handle: tourist\npetals:\n  fixed_count: 12\n  area_per_petal: 0\n")
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Codeforces.Handle != "tourist" {
		t.Errorf("expected handle override, got %q", cfg.Codeforces.Handle)
	}
	if cfg.Codeforces.Count != 10 {
		t.Errorf("expected default count to survive, got %d", cfg.Codeforces.Count)
	}
	if cfg.Petals.FixedCount != 12 || cfg.Petals.AreaPerPetal != 0 {
		t.Errorf("expected fixed-count petals, got %+v", cfg.Petals)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"zero width", "screen:\n  width: 0\n"},
		{"negative density", "petals:\n  area_per_petal: -1\n"},
		{"inverted radius", "petals:\n  radius_min: 9\n  radius_max: 3\n"},
		{"zero page size", "bangumi:\n  page_size: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(path, []byte(tt.yaml), 0644); err != nil {
				t.Fatal(err)
			}
			if _, err := Load(path); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestWriteYAMLRoundtrip(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatal(err)
	}
	cfg.Bangumi.Username = "someone"

	path := filepath.Join(t.TempDir(), "out.yaml")
	if err := cfg.WriteYAML(path); err != nil {
		t.Fatalf("WriteYAML: %v", err)
	}

	again, err := Load(path)
	if err != nil {
		t.Fatalf("Load written config: %v", err)
	}
	if again.Bangumi.Username != "someone" {
		t.Errorf("expected username to survive, got %q", again.Bangumi.Username)
	}
	if again.Device.MaxAge != cfg.Device.MaxAge {
		t.Errorf("max age changed: %s != %s", again.Device.MaxAge, cfg.Device.MaxAge)
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
