package domain

import (
	"sort"
)

// Core Data Models

// GenomicCall represents one normalized genotype observation at a tracked
// position. Calls are created once by the variant reader and never mutated.
type GenomicCall struct {
	RSID       string `json:"rsid"`
	Chromosome string `json:"chromosome"`
	Position   int64  `json:"position"`
	Gene       string `json:"gene"`
	// Genotype is the two resolved allele bases, phase separators removed,
	// rendered in lexicographic order (e.g. "AG" for a 0/1 or 1|0 call).
	Genotype string `json:"genotype"`
	// AltCopies is the number of alternate-allele copies observed (0-2).
	// Missing calls are normalized to the reference genotype with 0 copies.
	AltCopies int    `json:"alt_copies"`
	Impact    Impact `json:"impact"`
}

// Detected reports whether the call carries at least one alternate allele
func (c GenomicCall) Detected() bool {
	return c.AltCopies > 0
}

// Diplotype represents the unordered pair of star alleles inferred for one
// gene. The pair is stored in lexicographic order so rendering is
// deterministic; homozygous pairs are allowed.
type Diplotype struct {
	Allele1 string `json:"allele1"`
	Allele2 string `json:"allele2"`
}

// NewDiplotype builds a diplotype with deterministic allele ordering
func NewDiplotype(a, b string) Diplotype {
	if b < a {
		a, b = b, a
	}
	return Diplotype{Allele1: a, Allele2: b}
}

// String renders the diplotype as "Allele1/Allele2"
func (d Diplotype) String() string {
	return d.Allele1 + "/" + d.Allele2
}

// Homozygous reports whether both alleles are identical
func (d Diplotype) Homozygous() bool {
	return d.Allele1 == d.Allele2
}

// GeneProfile represents the resolved pharmacogenomic state of one gene for
// one sample: the inferred diplotype, its phenotype classification, and the
// detected variant calls that support it.
type GeneProfile struct {
	Gene          string        `json:"gene"`
	Diplotype     Diplotype     `json:"diplotype"`
	Phenotype     Phenotype     `json:"phenotype"`
	ActivityScore *float64      `json:"activity_score,omitempty"`
	DetectedCalls []GenomicCall `json:"detected_calls"`
}

// DetectedCount returns the number of calls carrying an alternate allele
func (p *GeneProfile) DetectedCount() int {
	n := 0
	for _, c := range p.DetectedCalls {
		if c.Detected() {
			n++
		}
	}
	return n
}

// VariantEvidence represents one contributing variant rendered for output
type VariantEvidence struct {
	RSID        string   `json:"rsid"`
	Genotype    string   `json:"genotype"`
	Impact      Impact   `json:"impact"`
	StarAlleles []string `json:"star_alleles,omitempty"`
}

// AssessmentResult represents the immutable outcome of one (sample, drug)
// assessment. It is assembled once by the assessor and handed unchanged to
// the presentation layer and the explanation service.
type AssessmentResult struct {
	Drug            string    `json:"drug"`
	Gene            string    `json:"gene"`
	Diplotype       string    `json:"diplotype"`
	Phenotype       Phenotype `json:"phenotype"`
	PhenotypeName   string    `json:"phenotype_name"`
	ActivityScore   *float64  `json:"activity_score,omitempty"`
	RiskLabel       string    `json:"risk_label"`
	Severity        Severity  `json:"severity"`
	Recommendation  string    `json:"recommendation"`
	GuidelineSource string    `json:"guideline_source"`
	EvidenceLevel   string    `json:"evidence_level"`
	// Confidence reflects internal algorithmic certainty in [0.50, 0.99],
	// not a clinically validated probability.
	Confidence float64 `json:"confidence"`
	// PhenotypeFallback is set when the drug had no rule for the observed
	// phenotype and the Normal Metabolizer rule was substituted.
	PhenotypeFallback bool              `json:"phenotype_fallback,omitempty"`
	Evidence          []VariantEvidence `json:"evidence"`
	CatalogVersion    string            `json:"catalog_version"`

	// Explanation is supplied by the external explanation service or, on
	// failure, by a templated fallback. Its source is always reported so
	// callers can distinguish the two.
	Explanation       string `json:"explanation,omitempty"`
	ExplanationSource string `json:"explanation_source,omitempty"`
}

// DrugError represents a per-drug failure inside a batch assessment
type DrugError struct {
	Drug  string `json:"drug"`
	Error string `json:"error"`
}

// BatchAssessment represents the outcome of assessing several drugs against
// one parsed sample. Per-drug failures never abort the remaining drugs.
type BatchAssessment struct {
	Assessments []AssessmentResult `json:"assessments"`
	Errors      []DrugError        `json:"errors"`
	Burden      *BurdenScore       `json:"burden_score,omitempty"`
}

// SortDeterministic orders batch contents by drug name so concurrent
// assembly always renders identically
func (b *BatchAssessment) SortDeterministic() {
	sort.Slice(b.Assessments, func(i, j int) bool {
		return b.Assessments[i].Drug < b.Assessments[j].Drug
	})
	sort.Slice(b.Errors, func(i, j int) bool {
		return b.Errors[i].Drug < b.Errors[j].Drug
	})
}

// Burden Models

// GeneBurden represents the aggregate burden one gene contributes
type GeneBurden struct {
	Gene              string       `json:"gene"`
	Phenotype         Phenotype    `json:"phenotype"`
	ActivityScore     *float64     `json:"activity_score,omitempty"`
	MaxSeverityWeight float64      `json:"max_severity_weight"`
	AffectedDrugs     []DrugBurden `json:"affected_drugs"`
}

// DrugBurden represents one drug's contribution to a gene burden
type DrugBurden struct {
	Drug      string   `json:"drug"`
	RiskLabel string   `json:"risk_label"`
	Severity  Severity `json:"severity"`
	Weight    float64  `json:"weight"`
}

// HighRiskPair represents a drug/gene pairing at high or critical severity
type HighRiskPair struct {
	Drug      string    `json:"drug"`
	Gene      string    `json:"gene"`
	Phenotype Phenotype `json:"phenotype"`
	RiskLabel string    `json:"risk_label"`
	Severity  Severity  `json:"severity"`
}

// BurdenScore represents the pharmacogenomic burden across all genes: the
// sum of each gene's worst-case severity weight over the analyzed drugs.
type BurdenScore struct {
	Total              float64        `json:"pharmacogenomic_burden_score"`
	Normalized         float64        `json:"normalized_score"`
	Tier               BurdenTier     `json:"risk_tier"`
	GeneBurdens        []GeneBurden   `json:"gene_burdens"`
	HighRiskPairs      []HighRiskPair `json:"high_risk_pairs"`
	TotalGenesAffected int            `json:"total_genes_affected"`
	DrugsAnalyzed      int            `json:"drugs_analyzed"`
}

// CounterfactualResult represents an actual-versus-simulated comparison for
// one drug with the primary gene's phenotype forced to a target category
type CounterfactualResult struct {
	Drug               string            `json:"drug"`
	PrimaryGene        string            `json:"primary_gene"`
	Actual             *AssessmentResult `json:"actual"`
	SimulatedPhenotype Phenotype         `json:"simulated_phenotype"`
	Counterfactual     *AssessmentResult `json:"counterfactual"`
	RiskChanged        bool              `json:"risk_changed"`
}

// DrugInfo represents one catalog drug rendered for listing
type DrugInfo struct {
	Drug            string `json:"drug"`
	PrimaryGene     string `json:"primary_gene"`
	GuidelineSource string `json:"guideline_source"`
	PhenotypeRules  int    `json:"phenotype_rules"`
}
