package idhash

import (
	"testing"
)

func TestComputeConfigHash(t *testing.T) {
	a := ComputeConfigHash([]byte("draws: 1000\n"))
	b := ComputeConfigHash([]byte("draws: 1000\n"))
	c := ComputeConfigHash([]byte("draws: 1001\n"))

	if len(a) != 64 {
		t.Errorf("ComputeConfigHash() length = %d, want 64", len(a))
	}
	if a != b {
		t.Errorf("ComputeConfigHash() not deterministic: %s != %s", a, b)
	}
	if a == c {
		t.Error("ComputeConfigHash() should differ for different documents")
	}
}

func TestComputeRunID(t *testing.T) {
	hash := ComputeConfigHash([]byte("model"))

	tests := []struct {
		name         string
		jurisdiction string
		seed         uint64
		draws        int
	}{
		{"base", "AU", 42, 1000},
		{"other jurisdiction", "NZ", 42, 1000},
		{"other seed", "AU", 43, 1000},
		{"other draws", "AU", 42, 999},
	}

	base := ComputeRunID(hash, "AU", 42, 1000)
	if base.Version() != 5 {
		t.Errorf("ComputeRunID() version = %d, want 5", base.Version())
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeRunID(hash, tt.jurisdiction, tt.seed, tt.draws)
			again := ComputeRunID(hash, tt.jurisdiction, tt.seed, tt.draws)
			if got != again {
				t.Errorf("ComputeRunID() not deterministic: %s != %s", got, again)
			}
			if tt.name != "base" && got == base {
				t.Errorf("ComputeRunID() collided with base run for %s", tt.name)
			}
		})
	}
}
