package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

func TestStateValues_RemissionAlias(t *testing.T) {
	var v StateValues
	doc := "Depressed: 420\nRemission: 120\nRemission_12m+: 80\n"
	if err := yaml.Unmarshal([]byte(doc), &v); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if v[StateDepressed] != 420 {
		t.Errorf("Depressed = %v, want 420", v[StateDepressed])
	}
	for _, s := range RemissionTunnel[:3] {
		if v[s] != 120 {
			t.Errorf("%s = %v, want 120", s, v[s])
		}
	}
	// Explicit bucket wins over the alias.
	if v[StateRemission12Plus] != 80 {
		t.Errorf("Remission_12m+ = %v, want 80", v[StateRemission12Plus])
	}
}

func TestStateValues_UnknownState(t *testing.T) {
	var v StateValues
	if err := yaml.Unmarshal([]byte("Manic: 1\n"), &v); err == nil {
		t.Fatal("expected error for unknown state")
	}
}

func TestState_Tunnel(t *testing.T) {
	if got := StateRemission7to12.TunnelIndex(); got != 2 {
		t.Errorf("TunnelIndex = %d, want 2", got)
	}
	if StateRelapse.TunnelIndex() != -1 || StateRelapse.IsRemission() {
		t.Error("Relapse is not a remission bucket")
	}
	if StateDeath.IsAlive() {
		t.Error("Death is not alive")
	}
	if got := State(42).String(); got != "State(42)" {
		t.Errorf("String = %q", got)
	}
}

func TestParsePerspective(t *testing.T) {
	p, err := ParsePerspective("societal")
	if err != nil || p != PerspectiveSocietal {
		t.Fatalf("ParsePerspective = %v, %v", p, err)
	}
	if _, err := ParsePerspective("payer"); err == nil {
		t.Error("expected error for unknown perspective")
	}
}

func TestStrategyConfig(t *testing.T) {
	price := decimal.RequireFromString("7400.00")
	cfg := StrategyConfig{
		BaseStrategy: "UsualCare",
		Strategies: []Strategy{
			{ID: "UsualCare"},
			{ID: "Esketamine", ListPrice: &price},
			{ID: "ECT", Perspectives: []Perspective{PerspectiveHealthSystem}},
		},
	}

	if got := cfg.StrategiesFor(PerspectiveSocietal); len(got) != 2 || got[1] != "Esketamine" {
		t.Errorf("StrategiesFor(societal) = %v", got)
	}
	if got := cfg.StrategiesFor(PerspectiveHealthSystem); len(got) != 3 {
		t.Errorf("StrategiesFor(health_system) = %v", got)
	}
	if p, ok := cfg.ListPrice("Esketamine"); !ok || !p.Equal(price) {
		t.Errorf("ListPrice = %v, %v", p, ok)
	}
	if _, ok := cfg.ListPrice("UsualCare"); ok {
		t.Error("UsualCare has no list price")
	}
	if s, _ := cfg.Lookup("ECT"); s.DisplayName() != "ECT" {
		t.Errorf("DisplayName = %q", s.DisplayName())
	}
}
