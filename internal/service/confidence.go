package service

import (
	"github.com/pharmaguard-server/internal/domain"
)

// Confidence scoring bounds. Every assessment lands inside this interval
// regardless of how many variants support it.
const (
	confidenceFloor = 0.50
	confidenceCeil  = 0.99
)

// BaseConfidence returns the confidence contribution of observed variant
// support. The curve saturates: each variant past the fourth adds 0.012 up
// to a ceiling of 0.94.
func BaseConfidence(detected int) float64 {
	switch {
	case detected <= 0:
		return 0.55
	case detected == 1:
		return 0.67
	case detected == 2:
		return 0.76
	case detected == 3:
		return 0.84
	case detected == 4:
		return 0.89
	default:
		v := 0.89 + 0.012*float64(detected-4)
		if v > 0.94 {
			return 0.94
		}
		return v
	}
}

// ActivityAdjustment rewards activity scores at the extremes, where phenotype
// assignment is unambiguous, and penalizes scores near the middle of the
// normal band, where adjacent diplotypes produce similar activities. Rules
// are checked in priority order; the first match wins. A nil activity score
// contributes nothing.
func ActivityAdjustment(activity *float64) float64 {
	if activity == nil {
		return 0
	}
	a := *activity
	switch {
	case a == 0:
		return 0.06
	case a <= 0.25:
		return 0.04
	case a >= 2.5:
		return 0.04
	case a >= 2.0:
		return 0.03
	case a > 0.75 && a < 1.25:
		return -0.05
	case a <= 0.5:
		return 0.02
	default:
		return 0
	}
}

// ImpactBonus adds 0.025 per detected high-impact variant, capped at 0.05.
func ImpactBonus(calls []domain.GenomicCall) float64 {
	bonus := 0.0
	for _, c := range calls {
		if c.Detected() && c.Impact.IsHighImpact() {
			bonus += 0.025
		}
	}
	if bonus > 0.05 {
		return 0.05
	}
	return bonus
}

// ComputeConfidence combines the base, activity and impact terms and clamps
// the result to [0.50, 0.99].
func ComputeConfidence(profile *domain.GeneProfile) float64 {
	v := BaseConfidence(profile.DetectedCount()) +
		ActivityAdjustment(profile.ActivityScore) +
		ImpactBonus(profile.DetectedCalls)
	if v < confidenceFloor {
		return confidenceFloor
	}
	if v > confidenceCeil {
		return confidenceCeil
	}
	return v
}
