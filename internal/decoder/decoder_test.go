package decoder

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaytrace/tmodel/internal/accumulator"
	"github.com/relaytrace/tmodel/internal/model"
)

// scenarioAHMM is the minimal packet-decode fixture.
func scenarioAHMM() *model.HMM {
	return &model.HMM{
		States:    []string{"s0", "s1", "End"},
		Obs:       []string{"+", "-", "F"},
		StartProb: []float64{0.2, 0.8, 0.0},
		TransProb: [][]float64{
			{0.75, 0.25, 0},
			{0.5, 0, 0.5},
			{0, 0, 1.0},
		},
		Emit: [][]model.Emission{
			{{DP: 0.8, Mu: 12.0, Sigma: 0.01}, {DP: 0.2, Mu: 5.5, Sigma: 3.0}, {DP: 0}},
			{{DP: 0.1, Mu: 3.8, Sigma: 1.7}, {DP: 0.9, Mu: 1.4, Sigma: 0.9}, {DP: 0}},
			{{DP: 0}, {DP: 0}, {DP: 1.0}},
		},
	}
}

func recs(codes ...string) []accumulator.Record {
	out := make([]accumulator.Record, len(codes))
	for i, c := range codes {
		out[i] = accumulator.Record{Code: c, Delay: time.Millisecond}
	}
	return out
}

func TestComputeDelayDXBucketisation(t *testing.T) {
	assert.Equal(t, 1.0, computeDelayDX(0))
	assert.Equal(t, 1.0, computeDelayDX(2))
	assert.Equal(t, 2.0, computeDelayDX(3))
	assert.Equal(t, 2.0, computeDelayDX(5))
	assert.Equal(t, 7.0, computeDelayDX(20))
	assert.Equal(t, 54.0, computeDelayDX(55))
	assert.Equal(t, 1096.0, computeDelayDX(1097))
}

func TestDecodeRefusesShortSequence(t *testing.T) {
	_, err := Decode(scenarioAHMM(), recs("F"))
	require.Error(t, err)
	var infeasible *ErrDecodeInfeasible
	require.ErrorAs(t, err, &infeasible)
}

func TestDecodeScenarioA(t *testing.T) {
	h := scenarioAHMM()
	obs := []accumulator.Record{
		{Code: "+", Delay: time.Millisecond},
		{Code: "+", Delay: time.Millisecond},
		{Code: "-", Delay: time.Millisecond},
		{Code: "-", Delay: time.Millisecond},
		{Code: "F", Delay: 0},
	}
	steps, err := Decode(h, obs)
	require.NoError(t, err)
	require.Len(t, steps, 5)

	wantStates := []string{"s1", "s0", "s0", "s1", "End"}
	for i, want := range wantStates {
		assert.Equal(t, want, steps[i].State, "step %d", i)
	}
	assert.Equal(t, int64(1000), steps[0].DelayMicros)
	assert.Equal(t, int64(0), steps[4].DelayMicros)
}

func TestDecodeRejectsUnknownObservationCode(t *testing.T) {
	h := scenarioAHMM()
	obs := []accumulator.Record{{Code: "$"}, {Code: "F"}}
	_, err := Decode(h, obs)
	require.Error(t, err)
}

// streamScenarioHMM is the minimal stream-decode fixture shared by
// Scenarios B and C.
func streamScenarioHMM() *model.HMM {
	return &model.HMM{
		States:    []string{"s0Active", "s1Dwell", "s2End"},
		Obs:       []string{"$", "F"},
		StartProb: []float64{0.5, 0.5, 0},
		TransProb: [][]float64{
			{0.5, 0.4, 0.1},
			{0.3, 0.6, 0.1},
			{0, 0, 1.0},
		},
		Emit: [][]model.Emission{
			{{DP: 1.0, Lambda: 0.00015}, {DP: 0}},
			{{DP: 1.0, Mu: 14.907755, Sigma: 1.36}, {DP: 0}},
			{{DP: 0}, {DP: 1.0}},
		},
	}
}

func TestDecodeScenarioB(t *testing.T) {
	h := streamScenarioHMM()
	obs := []accumulator.Record{
		{Code: "$", Delay: time.Millisecond},
		{Code: "$", Delay: time.Millisecond},
		{Code: "$", Delay: time.Millisecond},
		{Code: "F", Delay: 0},
	}
	steps, err := Decode(h, obs)
	require.NoError(t, err)
	require.Len(t, steps, 4)

	wantStates := []string{"s0Active", "s0Active", "s0Active", "s2End"}
	for i, want := range wantStates {
		assert.Equal(t, want, steps[i].State, "step %d", i)
	}
}

func TestDecodeScenarioC(t *testing.T) {
	h := streamScenarioHMM()
	gap := 2957929 * time.Microsecond
	obs := []accumulator.Record{
		{Code: "$", Delay: gap},
		{Code: "$", Delay: gap},
		{Code: "$", Delay: gap},
		{Code: "$", Delay: gap},
		{Code: "$", Delay: gap},
		{Code: "F", Delay: 0},
	}
	steps, err := Decode(h, obs)
	require.NoError(t, err)
	require.Len(t, steps, 6)

	for i := 0; i < 5; i++ {
		assert.Equal(t, "s1Dwell", steps[i].State, "step %d", i)
	}
	assert.Equal(t, "s2End", steps[5].State)
}

func TestDecodeInfeasibleWhenAllEmissionsImpossible(t *testing.T) {
	h := &model.HMM{
		States:    []string{"s0"},
		Obs:       []string{"+", "F"},
		StartProb: []float64{1.0},
		TransProb: [][]float64{{1.0}},
		Emit: [][]model.Emission{
			{{DP: 0}, {DP: 0}},
		},
	}
	_, err := Decode(h, recs("+", "F"))
	require.Error(t, err)
	var infeasible *ErrDecodeInfeasible
	require.ErrorAs(t, err, &infeasible)
}
