package domain

// Core Enums and Types

// Phenotype represents the metabolizer status derived from a diplotype.
// The short codes match the phenotype keys used in the guideline catalog.
type Phenotype string

const (
	PoorMetabolizer         Phenotype = "PM"
	IntermediateMetabolizer Phenotype = "IM"
	NormalMetabolizer       Phenotype = "NM"
	RapidMetabolizer        Phenotype = "RM"
	UltrarapidMetabolizer   Phenotype = "URM"
)

// String returns the short phenotype code
func (p Phenotype) String() string {
	return string(p)
}

// Description returns the human-readable phenotype name
func (p Phenotype) Description() string {
	switch p {
	case PoorMetabolizer:
		return "Poor Metabolizer"
	case IntermediateMetabolizer:
		return "Intermediate Metabolizer"
	case NormalMetabolizer:
		return "Normal Metabolizer"
	case RapidMetabolizer:
		return "Rapid Metabolizer"
	case UltrarapidMetabolizer:
		return "Ultrarapid Metabolizer"
	}
	return "Unknown"
}

// IsValid reports whether the phenotype is one of the known categories
func (p Phenotype) IsValid() bool {
	switch p {
	case PoorMetabolizer, IntermediateMetabolizer, NormalMetabolizer,
		RapidMetabolizer, UltrarapidMetabolizer:
		return true
	}
	return false
}

// Severity represents the clinical severity of a guideline rule
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// String returns the severity label
func (s Severity) String() string {
	return string(s)
}

// IsValid reports whether the severity is a member of the closed enum
func (s Severity) IsValid() bool {
	switch s {
	case SeverityNone, SeverityLow, SeverityModerate, SeverityHigh, SeverityCritical:
		return true
	}
	return false
}

// Weight returns the burden weight assigned to the severity
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 4.0
	case SeverityHigh:
		return 3.0
	case SeverityModerate:
		return 2.0
	case SeverityLow:
		return 1.0
	}
	return 0.0
}

// EvidenceLevel returns the guideline evidence tier reported for the severity
func (s Severity) EvidenceLevel() string {
	switch s {
	case SeverityCritical, SeverityHigh:
		return "1A - Strong CPIC recommendation"
	case SeverityModerate:
		return "1B - Moderate CPIC recommendation"
	case SeverityLow:
		return "2A - Weak or limited evidence"
	case SeverityNone:
		return "1A - Standard dosing supported"
	}
	return "Unknown"
}

// Impact represents the annotated functional impact of a tracked variant
type Impact string

const (
	ImpactNormal        Impact = "normal"
	ImpactIncreased     Impact = "increased"
	ImpactDecreased     Impact = "decreased"
	ImpactNonfunctional Impact = "nonfunctional"
	ImpactFrameshift    Impact = "frameshift"
	ImpactStop          Impact = "stop"
	ImpactSplice        Impact = "splice"
)

// IsHighImpact reports whether the impact contributes to the
// high-impact confidence bonus
func (i Impact) IsHighImpact() bool {
	switch i {
	case ImpactNonfunctional, ImpactFrameshift, ImpactStop, ImpactSplice:
		return true
	}
	return false
}

// AlleleFunction represents the categorical function assigned to star
// alleles of genes that do not carry a graded activity-score convention
type AlleleFunction string

const (
	FunctionNormal        AlleleFunction = "normal"
	FunctionIncreased     AlleleFunction = "increased"
	FunctionDecreased     AlleleFunction = "decreased"
	FunctionNonfunctional AlleleFunction = "nonfunctional"
)

// Impaired reports whether the function is below normal
func (f AlleleFunction) Impaired() bool {
	return f == FunctionDecreased || f == FunctionNonfunctional
}

// BurdenTier represents the aggregate pharmacogenomic burden tier
type BurdenTier string

const (
	BurdenMinimal  BurdenTier = "MINIMAL"
	BurdenLow      BurdenTier = "LOW"
	BurdenModerate BurdenTier = "MODERATE"
	BurdenHigh     BurdenTier = "HIGH"
	BurdenCritical BurdenTier = "CRITICAL"
)
