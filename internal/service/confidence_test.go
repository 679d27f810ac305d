package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/pharmaguard-server/internal/domain"
)

func TestBaseConfidence(t *testing.T) {
	tests := []struct {
		detected int
		want     float64
	}{
		{0, 0.55},
		{1, 0.67},
		{2, 0.76},
		{3, 0.84},
		{4, 0.89},
		{5, 0.902},
		{6, 0.914},
		{8, 0.938},
		{9, 0.94},
		{100, 0.94},
	}

	for _, tt := range tests {
		assert.InDeltaf(t, tt.want, BaseConfidence(tt.detected), 1e-9, "detected=%d", tt.detected)
	}
}

func TestBaseConfidenceMonotonic(t *testing.T) {
	prev := 0.0
	for n := 0; n <= 20; n++ {
		v := BaseConfidence(n)
		assert.GreaterOrEqual(t, v, prev)
		assert.LessOrEqual(t, v, 0.94)
		prev = v
	}
}

func TestActivityAdjustment(t *testing.T) {
	tests := []struct {
		name     string
		activity *float64
		want     float64
	}{
		{"nil contributes nothing", nil, 0},
		{"zero activity", activity(0), 0.06},
		{"very low", activity(0.25), 0.04},
		{"ultrarapid range", activity(2.5), 0.04},
		{"rapid range", activity(2.0), 0.03},
		{"ambiguous middle", activity(1.0), -0.05},
		{"low", activity(0.5), 0.02},
		{"unremarkable", activity(1.5), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ActivityAdjustment(tt.activity), 1e-9)
		})
	}
}

func TestImpactBonus(t *testing.T) {
	high := call("CYP2D6", "rs3892097", "AG", 1, domain.ImpactSplice)
	low := call("CYP2D6", "rs1065852", "CT", 1, domain.ImpactDecreased)
	undetected := call("CYP2D6", "rs28371725", "CC", 0, domain.ImpactSplice)

	assert.InDelta(t, 0.0, ImpactBonus(nil), 1e-9)
	assert.InDelta(t, 0.025, ImpactBonus([]domain.GenomicCall{high, low}), 1e-9)
	assert.InDelta(t, 0.0, ImpactBonus([]domain.GenomicCall{undetected}), 1e-9)
	assert.InDelta(t, 0.05, ImpactBonus([]domain.GenomicCall{high, high, high}), 1e-9)
}

func TestComputeConfidenceClamped(t *testing.T) {
	// Many high-impact homozygous variants push the raw sum past the
	// ceiling; the result must stay inside [0.50, 0.99].
	calls := make([]domain.GenomicCall, 0, 12)
	for i := 0; i < 12; i++ {
		calls = append(calls, call("CYP2D6", "rs3892097", "AA", 2, domain.ImpactSplice))
	}
	profile := &domain.GeneProfile{
		Gene:          "CYP2D6",
		Phenotype:     domain.PoorMetabolizer,
		ActivityScore: activity(0),
		DetectedCalls: calls,
	}

	v := ComputeConfidence(profile)
	assert.GreaterOrEqual(t, v, 0.50)
	assert.LessOrEqual(t, v, 0.99)
}

func TestComputeConfidenceNoVariants(t *testing.T) {
	profile := &domain.GeneProfile{
		Gene:          "CYP2D6",
		Phenotype:     domain.NormalMetabolizer,
		ActivityScore: activity(2.0),
	}

	// Base 0.55 for zero detected variants, +0.03 for the rapid-range
	// activity rule matching at 2.0.
	assert.InDelta(t, 0.58, ComputeConfidence(profile), 1e-9)
}
