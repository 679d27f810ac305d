package service

import (
	"context"
	"sort"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/catalog"
	"github.com/pharmaguard-server/internal/domain"
)

// Assessor runs the full risk assessment pipeline: gene profiles from variant
// calls, guideline matching, confidence scoring and result assembly. It holds
// no mutable state and is safe for concurrent use.
type Assessor struct {
	catalog   *catalog.Catalog
	inference *InferenceEngine
	scorer    *ActivityScorer
	matcher   *GuidelineMatcher
	logger    *logrus.Logger
}

// NewAssessor creates a new assessor wired to the given catalog
func NewAssessor(cat *catalog.Catalog, logger *logrus.Logger) *Assessor {
	return &Assessor{
		catalog:   cat,
		inference: NewInferenceEngine(logger),
		scorer:    NewActivityScorer(logger),
		matcher:   NewGuidelineMatcher(cat, logger),
		logger:    logger,
	}
}

// BuildProfiles resolves one GeneProfile per catalog gene from the parsed
// calls. Genes with no observed variants are still profiled as homozygous
// wild-type, so every drug assessment has a profile to consult.
func (a *Assessor) BuildProfiles(calls []domain.GenomicCall) map[string]*domain.GeneProfile {
	byGene := make(map[string][]domain.GenomicCall)
	for _, c := range calls {
		byGene[c.Gene] = append(byGene[c.Gene], c)
	}

	profiles := make(map[string]*domain.GeneProfile, len(a.catalog.Genes))
	for _, symbol := range a.catalog.GeneSymbols() {
		gene := a.catalog.Genes[symbol]
		geneCalls := byGene[symbol]
		sort.SliceStable(geneCalls, func(i, j int) bool {
			return geneCalls[i].RSID < geneCalls[j].RSID
		})

		diplotype := a.inference.InferDiplotype(gene, geneCalls)
		phenotype, activity := a.scorer.Score(gene, diplotype)

		profiles[symbol] = &domain.GeneProfile{
			Gene:          symbol,
			Diplotype:     diplotype,
			Phenotype:     phenotype,
			ActivityScore: activity,
			DetectedCalls: geneCalls,
		}
	}
	return profiles
}

// AssessDrug assesses a single drug against the gene profiles. For a drug
// absent from the guideline catalog it returns a sentinel low-confidence
// result together with an UnknownDrugError, so single-drug callers can still
// render something while batch callers record the failure.
func (a *Assessor) AssessDrug(profiles map[string]*domain.GeneProfile, drug string) (*domain.AssessmentResult, error) {
	rules, ok := a.catalog.Drug(drug)
	if !ok {
		return a.unknownDrugResult(drug), &domain.UnknownDrugError{Drug: drug}
	}

	profile, ok := profiles[rules.PrimaryGene]
	if !ok {
		// Catalog validation guarantees the primary gene exists, so a
		// missing profile means BuildProfiles was not used.
		gene := a.catalog.Genes[rules.PrimaryGene]
		diplotype := a.inference.InferDiplotype(gene, nil)
		phenotype, activity := a.scorer.Score(gene, diplotype)
		profile = &domain.GeneProfile{
			Gene:          rules.PrimaryGene,
			Diplotype:     diplotype,
			Phenotype:     phenotype,
			ActivityScore: activity,
		}
	}

	outcome := a.matcher.Match(rules.Drug, profile.Phenotype)

	result := &domain.AssessmentResult{
		Drug:              rules.Drug,
		Gene:              profile.Gene,
		Diplotype:         profile.Diplotype.String(),
		Phenotype:         profile.Phenotype,
		PhenotypeName:     profile.Phenotype.Description(),
		ActivityScore:     profile.ActivityScore,
		RiskLabel:         outcome.Rule.RiskLabel,
		Severity:          outcome.Rule.Severity,
		Recommendation:    outcome.Rule.Recommendation,
		GuidelineSource:   outcome.GuidelineSource,
		EvidenceLevel:     outcome.Rule.Severity.EvidenceLevel(),
		Confidence:        ComputeConfidence(profile),
		PhenotypeFallback: outcome.PhenotypeFallback,
		Evidence:          a.buildEvidence(profile),
		CatalogVersion:    a.catalog.Version,
	}

	a.logger.WithFields(logrus.Fields{
		"drug":       result.Drug,
		"gene":       result.Gene,
		"diplotype":  result.Diplotype,
		"phenotype":  result.Phenotype,
		"risk_label": result.RiskLabel,
		"confidence": result.Confidence,
	}).Info("Assessed drug")

	return result, nil
}

// AssessBatch assesses every requested drug concurrently. Unknown drugs are
// collected as per-drug errors; the batch itself never fails. Results are
// sorted by drug name so the same input always yields the same output bytes.
func (a *Assessor) AssessBatch(ctx context.Context, profiles map[string]*domain.GeneProfile, drugs []string) *domain.BatchAssessment {
	batch := &domain.BatchAssessment{
		Assessments: make([]domain.AssessmentResult, 0, len(drugs)),
		Errors:      make([]domain.DrugError, 0),
	}

	var mu sync.Mutex
	var wg sync.WaitGroup
	for _, drug := range drugs {
		wg.Add(1)
		go func(drug string) {
			defer wg.Done()
			if err := ctx.Err(); err != nil {
				mu.Lock()
				batch.Errors = append(batch.Errors, domain.DrugError{Drug: drug, Error: err.Error()})
				mu.Unlock()
				return
			}
			result, err := a.AssessDrug(profiles, drug)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				batch.Errors = append(batch.Errors, domain.DrugError{Drug: drug, Error: err.Error()})
				return
			}
			batch.Assessments = append(batch.Assessments, *result)
		}(drug)
	}
	wg.Wait()

	batch.SortDeterministic()
	batch.Burden = a.ComputeBurden(batch.Assessments)
	return batch
}

// Drugs lists the assessable drugs in the loaded catalog
func (a *Assessor) Drugs() []domain.DrugInfo {
	names := a.catalog.DrugNames()
	infos := make([]domain.DrugInfo, 0, len(names))
	for _, name := range names {
		rules, _ := a.catalog.Drug(name)
		infos = append(infos, domain.DrugInfo{
			Drug:            rules.Drug,
			PrimaryGene:     rules.PrimaryGene,
			GuidelineSource: rules.GuidelineSource,
			PhenotypeRules:  len(rules.Phenotypes),
		})
	}
	return infos
}

func (a *Assessor) buildEvidence(profile *domain.GeneProfile) []domain.VariantEvidence {
	gene := a.catalog.Genes[profile.Gene]
	evidence := make([]domain.VariantEvidence, 0, len(profile.DetectedCalls))
	for _, c := range profile.DetectedCalls {
		if !c.Detected() {
			continue
		}
		evidence = append(evidence, domain.VariantEvidence{
			RSID:        c.RSID,
			Genotype:    c.Genotype,
			Impact:      c.Impact,
			StarAlleles: DefinedBy(gene, c.RSID),
		})
	}
	return evidence
}

func (a *Assessor) unknownDrugResult(drug string) *domain.AssessmentResult {
	return &domain.AssessmentResult{
		Drug:           drug,
		RiskLabel:      "Unknown",
		Severity:       domain.SeverityNone,
		Recommendation: "No guideline found",
		EvidenceLevel:  "Unknown",
		Confidence:     0.55,
		Evidence:       []domain.VariantEvidence{},
		CatalogVersion: a.catalog.Version,
	}
}
