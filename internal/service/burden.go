package service

import (
	"sort"

	"github.com/pharmaguard-server/internal/domain"
)

// Burden tier thresholds over the summed severity weights
const (
	burdenCriticalMin = 12
	burdenHighMin     = 8
	burdenModerateMin = 4
)

// ComputeBurden aggregates a batch of assessments into a single cumulative
// burden score. Each gene contributes the maximum severity weight across the
// drugs it affects; the normalized score divides by the worst case of every
// analyzed gene carrying a critical finding. Assessments that resolved
// through the normal-metabolizer fallback are excluded, the fallback rule
// says nothing about the actual phenotype.
func (a *Assessor) ComputeBurden(assessments []domain.AssessmentResult) *domain.BurdenScore {
	if len(assessments) == 0 {
		return &domain.BurdenScore{
			Tier:          domain.BurdenMinimal,
			GeneBurdens:   []domain.GeneBurden{},
			HighRiskPairs: []domain.HighRiskPair{},
		}
	}

	byGene := make(map[string]*domain.GeneBurden)
	pairs := make([]domain.HighRiskPair, 0)
	for _, r := range assessments {
		if r.PhenotypeFallback {
			continue
		}
		weight := r.Severity.Weight()

		gb, ok := byGene[r.Gene]
		if !ok {
			gb = &domain.GeneBurden{
				Gene:          r.Gene,
				Phenotype:     r.Phenotype,
				ActivityScore: r.ActivityScore,
				AffectedDrugs: []domain.DrugBurden{},
			}
			byGene[r.Gene] = gb
		}
		if weight > gb.MaxSeverityWeight {
			gb.MaxSeverityWeight = weight
		}
		if weight > 0 {
			gb.AffectedDrugs = append(gb.AffectedDrugs, domain.DrugBurden{
				Drug:      r.Drug,
				RiskLabel: r.RiskLabel,
				Severity:  r.Severity,
				Weight:    weight,
			})
		}
		if r.Severity == domain.SeverityHigh || r.Severity == domain.SeverityCritical {
			pairs = append(pairs, domain.HighRiskPair{
				Drug:      r.Drug,
				Gene:      r.Gene,
				Phenotype: r.Phenotype,
				RiskLabel: r.RiskLabel,
				Severity:  r.Severity,
			})
		}
	}

	total := 0.0
	affected := 0
	burdens := make([]domain.GeneBurden, 0, len(byGene))
	for _, gb := range byGene {
		sort.Slice(gb.AffectedDrugs, func(i, j int) bool {
			return gb.AffectedDrugs[i].Drug < gb.AffectedDrugs[j].Drug
		})
		total += gb.MaxSeverityWeight
		if gb.MaxSeverityWeight > 0 {
			affected++
		}
		burdens = append(burdens, *gb)
	}
	sort.Slice(burdens, func(i, j int) bool {
		if burdens[i].MaxSeverityWeight != burdens[j].MaxSeverityWeight {
			return burdens[i].MaxSeverityWeight > burdens[j].MaxSeverityWeight
		}
		return burdens[i].Gene < burdens[j].Gene
	})
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].Drug != pairs[j].Drug {
			return pairs[i].Drug < pairs[j].Drug
		}
		return pairs[i].Gene < pairs[j].Gene
	})

	normalized := 0.0
	if len(byGene) > 0 {
		normalized = total / (float64(len(byGene)) * domain.SeverityCritical.Weight())
	}

	return &domain.BurdenScore{
		Total:              total,
		Normalized:         normalized,
		Tier:               burdenTier(total),
		GeneBurdens:        burdens,
		HighRiskPairs:      pairs,
		TotalGenesAffected: affected,
		DrugsAnalyzed:      len(assessments),
	}
}

func burdenTier(total float64) domain.BurdenTier {
	switch {
	case total >= burdenCriticalMin:
		return domain.BurdenCritical
	case total >= burdenHighMin:
		return domain.BurdenHigh
	case total >= burdenModerateMin:
		return domain.BurdenModerate
	case total > 0:
		return domain.BurdenLow
	default:
		return domain.BurdenMinimal
	}
}
