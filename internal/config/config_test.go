package config

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trd-cea-lab/internal/domain"
	"trd-cea-lab/internal/markov"
)

func TestLoad_ExampleModel(t *testing.T) {
	m, err := Load("testdata/model.yaml")
	require.NoError(t, err)

	assert.Equal(t, "UsualCare", m.BaseStrategy)
	assert.Equal(t, "Esketamine", m.FocalStrategy)
	assert.Equal(t, []string{"UsualCare", "Esketamine", "ECT"}, m.IDs())

	price, ok := m.ListPrice("Esketamine")
	require.True(t, ok)
	assert.Equal(t, "7400", price.String())

	ect, ok := m.Lookup("ECT")
	require.True(t, ok)
	assert.Equal(t, []domain.Perspective{domain.PerspectiveHealthSystem}, ect.Perspectives)
	assert.Equal(t, 3, ect.Utility.CognitiveCycles)
	assert.Equal(t, []string{"UsualCare", "Esketamine"}, m.StrategiesFor(domain.PerspectiveSocietal))

	au, ok := m.Jurisdiction("AU")
	require.True(t, ok)
	assert.Equal(t, 420.0, au.StateCosts[domain.StateDepressed])
	// The Remission alias fills every tunnel bucket.
	for _, s := range domain.RemissionTunnel {
		assert.Equal(t, 120.0, au.StateCosts[s])
	}
	assert.Equal(t, 0.0, au.StateCosts[domain.StateDeath])

	// An explicit bucket overrides the alias.
	assert.Equal(t, 0.82, m.Simulation.StateUtilities[domain.StateRemission0to3])
	assert.Equal(t, 0.85, m.Simulation.StateUtilities[domain.StateRemission12Plus])

	assert.Equal(t, uint64(20240101), m.Simulation.Seed)
	assert.Equal(t, 60, m.Simulation.Cycles())
	assert.Equal(t, []float64{0, 0.5, 1, 2}, m.Analysis.Epsilons)
}

func TestLoad_CollectsEveryProblem(t *testing.T) {
	_, err := Load("testdata/invalid.yaml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	msg := err.Error()
	for _, want := range []string{
		"duplicate strategy",
		"base_strategy",
		"focal_strategy",
		"remission must be in [0,1]",
		"unknown perspective",
		"at least one jurisdiction",
		"cycle_months",
		"draws",
		"lambda_step",
		"lambda_max",
	} {
		assert.True(t, strings.Contains(msg, want), "missing %q in %s", want, msg)
	}
}

func TestValidate_TransitionOverflow(t *testing.T) {
	m, err := Load("testdata/model.yaml")
	require.NoError(t, err)

	m.Strategies[1].Clinical.Remission = 0.6
	m.Strategies[1].Clinical.PartialResponse = 0.5

	err = m.Validate()
	assert.True(t, errors.Is(err, ErrInvalidConfig))
	assert.True(t, errors.Is(err, markov.ErrInvalidTransition))
}

func TestValidate_UtilityBounds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Model)
		want   string
	}{
		{
			name:   "negative state utility",
			mutate: func(m *Model) { m.Simulation.StateUtilities[domain.StateRelapse] = -0.1 },
			want:   "state_utilities Relapse must be in [0,1]",
		},
		{
			name:   "negative disutility",
			mutate: func(m *Model) { m.Strategies[1].Utility.AcuteDisutility = -0.02 },
			want:   "disutilities must be non-negative",
		},
		{
			name: "decrements exceed utility",
			mutate: func(m *Model) {
				ect := &m.Strategies[2]
				ect.Utility.AcuteDisutility = 0.3
				ect.Utility.CognitiveDisutility = 0.3
			},
			want: "strategy ECT: utility decrements 0.6 exceed Post-AdverseEvent utility 0.5",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Load("testdata/model.yaml")
			require.NoError(t, err)

			tt.mutate(m)
			err = m.Validate()
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidConfig))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestValidate_CognitiveDecrementNeedsCycles(t *testing.T) {
	m, err := Load("testdata/model.yaml")
	require.NoError(t, err)

	// Without cognitive cycles the cognitive decrement never applies.
	m.Strategies[2].Utility.CognitiveDisutility = 0.9
	m.Strategies[2].Utility.CognitiveCycles = 0
	assert.NoError(t, m.Validate())
}

func TestParse_BadYAML(t *testing.T) {
	_, err := Parse([]byte("strategies: [unclosed"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))

	_, err = Parse([]byte("simulation:\n  state_utilities:\n    Sleeping: 0.5\n"))
	assert.True(t, errors.Is(err, ErrInvalidConfig))
}

func TestLoadRuntime(t *testing.T) {
	t.Setenv("TRD_WORKERS", "6")
	t.Setenv("TRD_OUTPUT_DIR", "out")
	t.Setenv("LOG_LEVEL", "debug")

	rt, err := LoadRuntime()
	require.NoError(t, err)
	assert.Equal(t, 6, rt.Workers)
	assert.Equal(t, "out", rt.OutputDir)
	assert.Equal(t, "debug", rt.LogLevel)
}

func TestLoadRuntime_BadValue(t *testing.T) {
	t.Setenv("TRD_WORKERS", "many")

	_, err := LoadRuntime()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}
