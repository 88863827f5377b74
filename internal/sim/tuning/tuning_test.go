package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ConfigFile(t *testing.T) {
	p, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load tuning: %v", err)
	}
	if p.TickRateHz <= 0 {
		t.Errorf("tick rate: %d", p.TickRateHz)
	}
	if p.MechanicalDt() >= p.Dt() && p.NumMechanicalIterations > 1 {
		t.Errorf("mechanical dt %v not smaller than tick dt %v", p.MechanicalDt(), p.Dt())
	}
}

func TestLoad_OverridesKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("gravity: 1.62\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if p.Gravity != 1.62 {
		t.Errorf("gravity override lost: %v", p.Gravity)
	}
	d := Defaults()
	if p.WaterDensity != d.WaterDensity {
		t.Errorf("unset field should keep default: %v", p.WaterDensity)
	}
}

func TestLoad_RejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(path, []byte("tick_rate_hz: 0\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected error for zero tick rate")
	}
}
