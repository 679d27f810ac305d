package service

import (
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/catalog"
	"github.com/pharmaguard-server/internal/domain"
)

// MatchOutcome is the resolved guideline rule for a drug and phenotype,
// including whether the normal-metabolizer fallback was taken.
type MatchOutcome struct {
	Rule              catalog.GuidelineRule
	GuidelineSource   string
	PrimaryGene       string
	PhenotypeFallback bool
}

// GuidelineMatcher resolves drug and phenotype to a dosing guideline rule.
// It consults the loaded catalog only; rules never change at runtime.
type GuidelineMatcher struct {
	catalog *catalog.Catalog
	logger  *logrus.Logger
}

// NewGuidelineMatcher creates a new guideline matcher
func NewGuidelineMatcher(cat *catalog.Catalog, logger *logrus.Logger) *GuidelineMatcher {
	return &GuidelineMatcher{catalog: cat, logger: logger}
}

// Match resolves the rule for the drug and phenotype. A drug with rules but
// no entry for the given phenotype falls back to its normal-metabolizer
// rule, flagged so confidence scoring and callers can see it. An unknown
// drug returns nil.
func (m *GuidelineMatcher) Match(drug string, pheno domain.Phenotype) *MatchOutcome {
	rules, ok := m.catalog.Drug(drug)
	if !ok {
		return nil
	}

	if rule, ok := rules.Phenotypes[pheno]; ok {
		return &MatchOutcome{
			Rule:            rule,
			GuidelineSource: rules.GuidelineSource,
			PrimaryGene:     rules.PrimaryGene,
		}
	}

	fallback := rules.Phenotypes[domain.NormalMetabolizer]
	m.logger.WithFields(logrus.Fields{
		"drug":      rules.Drug,
		"phenotype": pheno,
	}).Warn("No guideline rule for phenotype, using normal-metabolizer fallback")

	return &MatchOutcome{
		Rule:              fallback,
		GuidelineSource:   rules.GuidelineSource,
		PrimaryGene:       rules.PrimaryGene,
		PhenotypeFallback: true,
	}
}
