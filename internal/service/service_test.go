package service

import (
	"io"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/catalog"
	"github.com/pharmaguard-server/internal/domain"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func activity(v float64) *float64 {
	return &v
}

// testCatalog builds a small catalog with one graded gene per convention:
// CYP2D6 and CYP2C19 with numeric activities, TPMT scored categorically.
func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	genes := []*catalog.Gene{
		{
			Symbol:   "CYP2D6",
			WildType: "*1",
			Variants: []catalog.TrackedVariant{
				{RSID: "rs3892097", Chromosome: "22", Position: 42524947, Ref: "G", Alt: "A", Impact: domain.ImpactSplice},
				{RSID: "rs1065852", Chromosome: "22", Position: 42526694, Ref: "C", Alt: "T", Impact: domain.ImpactDecreased},
				{RSID: "rs28371725", Chromosome: "22", Position: 42523805, Ref: "C", Alt: "T", Impact: domain.ImpactDecreased},
			},
			Alleles: []catalog.StarAllele{
				{Name: "*1", Activity: activity(1.0), Function: domain.FunctionNormal},
				{Name: "*4", DefiningVariants: []string{"rs3892097"}, Activity: activity(0.0), Function: domain.FunctionNonfunctional},
				{Name: "*10", DefiningVariants: []string{"rs1065852"}, Activity: activity(0.25), Function: domain.FunctionDecreased},
				{Name: "*41", DefiningVariants: []string{"rs28371725"}, Activity: activity(0.5), Function: domain.FunctionDecreased},
			},
		},
		{
			Symbol:   "CYP2C19",
			WildType: "*1",
			Variants: []catalog.TrackedVariant{
				{RSID: "rs4244285", Chromosome: "10", Position: 94781859, Ref: "G", Alt: "A", Impact: domain.ImpactSplice},
				{RSID: "rs12248560", Chromosome: "10", Position: 94761900, Ref: "C", Alt: "T", Impact: domain.ImpactIncreased},
			},
			Alleles: []catalog.StarAllele{
				{Name: "*1", Activity: activity(1.0), Function: domain.FunctionNormal},
				{Name: "*2", DefiningVariants: []string{"rs4244285"}, Activity: activity(0.0), Function: domain.FunctionNonfunctional},
				{Name: "*17", DefiningVariants: []string{"rs12248560"}, Activity: activity(1.25), Function: domain.FunctionIncreased},
			},
		},
		{
			Symbol:   "TPMT",
			WildType: "*1",
			Variants: []catalog.TrackedVariant{
				{RSID: "rs1800460", Chromosome: "6", Position: 18139228, Ref: "C", Alt: "T", Impact: domain.ImpactNonfunctional},
				{RSID: "rs1142345", Chromosome: "6", Position: 18130918, Ref: "T", Alt: "C", Impact: domain.ImpactNonfunctional},
			},
			Alleles: []catalog.StarAllele{
				{Name: "*1", Function: domain.FunctionNormal},
				{Name: "*3A", DefiningVariants: []string{"rs1800460", "rs1142345"}, Function: domain.FunctionNonfunctional},
				{Name: "*3C", DefiningVariants: []string{"rs1142345"}, Function: domain.FunctionNonfunctional},
			},
		},
	}

	drugs := []*catalog.DrugRules{
		{
			Drug:            "CODEINE",
			PrimaryGene:     "CYP2D6",
			GuidelineSource: "CPIC Guideline for Codeine and CYP2D6",
			Phenotypes: map[domain.Phenotype]catalog.GuidelineRule{
				domain.PoorMetabolizer:         {RiskLabel: "Ineffective", Severity: domain.SeverityHigh, Recommendation: "Avoid codeine, select an alternative analgesic"},
				domain.IntermediateMetabolizer: {RiskLabel: "Adjust Dosage", Severity: domain.SeverityModerate, Recommendation: "Use codeine with close monitoring for reduced efficacy"},
				domain.NormalMetabolizer:       {RiskLabel: "Safe", Severity: domain.SeverityNone, Recommendation: "Use codeine at standard dosing"},
				domain.UltrarapidMetabolizer:   {RiskLabel: "Toxic", Severity: domain.SeverityCritical, Recommendation: "Avoid codeine due to risk of morphine toxicity"},
			},
		},
		{
			Drug:            "CLOPIDOGREL",
			PrimaryGene:     "CYP2C19",
			GuidelineSource: "CPIC Guideline for Clopidogrel and CYP2C19",
			Phenotypes: map[domain.Phenotype]catalog.GuidelineRule{
				domain.PoorMetabolizer:         {RiskLabel: "Ineffective", Severity: domain.SeverityHigh, Recommendation: "Avoid clopidogrel, use prasugrel or ticagrelor"},
				domain.IntermediateMetabolizer: {RiskLabel: "Adjust Dosage", Severity: domain.SeverityModerate, Recommendation: "Consider an alternative antiplatelet agent"},
				domain.NormalMetabolizer:       {RiskLabel: "Safe", Severity: domain.SeverityNone, Recommendation: "Use clopidogrel at standard dosing"},
			},
		},
		{
			Drug:            "AZATHIOPRINE",
			PrimaryGene:     "TPMT",
			GuidelineSource: "CPIC Guideline for Thiopurines and TPMT",
			Phenotypes: map[domain.Phenotype]catalog.GuidelineRule{
				domain.PoorMetabolizer:         {RiskLabel: "Toxic", Severity: domain.SeverityCritical, Recommendation: "Drastically reduce dose or select an alternative agent"},
				domain.IntermediateMetabolizer: {RiskLabel: "Adjust Dosage", Severity: domain.SeverityModerate, Recommendation: "Start at 30-80% of target dose"},
				domain.NormalMetabolizer:       {RiskLabel: "Safe", Severity: domain.SeverityNone, Recommendation: "Use azathioprine at standard dosing"},
			},
		},
	}

	cat, err := catalog.New("test.1", genes, drugs)
	require.NoError(t, err)
	return cat
}

func call(gene, rsid, genotype string, altCopies int, impact domain.Impact) domain.GenomicCall {
	return domain.GenomicCall{
		RSID:      rsid,
		Gene:      gene,
		Genotype:  genotype,
		AltCopies: altCopies,
		Impact:    impact,
	}
}
