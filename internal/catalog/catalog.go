// Package catalog loads the versioned pharmacogenomic reference data: star
// allele definitions per gene and drug guideline rules per phenotype. The
// catalog is loaded once at process start, validated as a whole, and treated
// as read-only for the process lifetime.
package catalog

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/pharmaguard-server/internal/domain"
)

// TrackedVariant represents one defining variant the pipeline watches for
type TrackedVariant struct {
	RSID       string        `json:"rsid"`
	Chromosome string        `json:"chromosome"`
	Position   int64         `json:"position"`
	Ref        string        `json:"ref"`
	Alt        string        `json:"alt"`
	Impact     domain.Impact `json:"impact"`
}

// StarAllele represents one named haplotype of a gene. Alleles are stored in
// catalog declaration order; that order is the documented tie-break for
// equal inference scores.
type StarAllele struct {
	Name             string                `json:"name"`
	DefiningVariants []string              `json:"defining_variants"`
	Activity         *float64              `json:"activity,omitempty"`
	Function         domain.AlleleFunction `json:"function,omitempty"`
}

// Gene represents the allele catalog entry for one gene
type Gene struct {
	Symbol   string           `json:"symbol"`
	WildType string           `json:"wild_type"`
	Variants []TrackedVariant `json:"variants"`
	Alleles  []StarAllele     `json:"alleles"`
}

// Allele returns the named star allele, or nil
func (g *Gene) Allele(name string) *StarAllele {
	for i := range g.Alleles {
		if g.Alleles[i].Name == name {
			return &g.Alleles[i]
		}
	}
	return nil
}

// Variant returns the tracked variant with the given rsID, or nil
func (g *Gene) Variant(rsid string) *TrackedVariant {
	for i := range g.Variants {
		if g.Variants[i].RSID == rsid {
			return &g.Variants[i]
		}
	}
	return nil
}

// HasActivityScores reports whether the gene carries a graded numeric
// activity convention. Genes without one carry categorical allele functions
// instead and bypass the activity band table.
func (g *Gene) HasActivityScores() bool {
	for i := range g.Alleles {
		if g.Alleles[i].Activity != nil {
			return true
		}
	}
	return false
}

// GuidelineRule represents one drug+phenotype guideline entry
type GuidelineRule struct {
	RiskLabel      string          `json:"risk_label"`
	Severity       domain.Severity `json:"severity"`
	Recommendation string          `json:"recommendation"`
}

// DrugRules represents the guideline table for one drug
type DrugRules struct {
	Drug            string                             `json:"drug"`
	PrimaryGene     string                             `json:"primary_gene"`
	GuidelineSource string                             `json:"guideline_source"`
	Phenotypes      map[domain.Phenotype]GuidelineRule `json:"phenotype_rules"`
}

// Catalog is the immutable reference data bundle. It is constructed once and
// passed by pointer into every pipeline call; concurrent readers need no
// locking.
type Catalog struct {
	Version string
	Genes   map[string]*Gene
	Drugs   map[string]*DrugRules

	byRSID     map[string]trackedRef
	byPosition map[string]trackedRef
}

type trackedRef struct {
	gene    string
	variant *TrackedVariant
}

type alleleFile struct {
	Version string `json:"version"`
	Genes   []Gene `json:"genes"`
}

type rulesFile struct {
	Version string `json:"version"`
	Drugs   map[string]struct {
		PrimaryGene     string                   `json:"primary_gene"`
		GuidelineSource string                   `json:"guideline_source"`
		Phenotypes      map[string]GuidelineRule `json:"phenotype_rules"`
	} `json:"drugs"`
}

// Load reads and validates the two catalog files. Any violation is a hard
// failure; the catalog is never returned partially loaded.
func Load(allelePath, rulesPath string) (*Catalog, error) {
	alleleData, err := os.ReadFile(allelePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read allele definitions: %w", err)
	}
	var af alleleFile
	if err := json.Unmarshal(alleleData, &af); err != nil {
		return nil, domain.NewCatalogError(allelePath, "invalid JSON: %v", err)
	}

	rulesData, err := os.ReadFile(rulesPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read guideline rules: %w", err)
	}
	var rf rulesFile
	if err := json.Unmarshal(rulesData, &rf); err != nil {
		return nil, domain.NewCatalogError(rulesPath, "invalid JSON: %v", err)
	}

	c := &Catalog{
		Version: af.Version,
		Genes:   make(map[string]*Gene, len(af.Genes)),
		Drugs:   make(map[string]*DrugRules, len(rf.Drugs)),
	}
	if rf.Version != "" && rf.Version != af.Version {
		return nil, domain.NewCatalogError(rulesPath,
			"version mismatch: allele definitions %q, guideline rules %q", af.Version, rf.Version)
	}

	for i := range af.Genes {
		g := af.Genes[i]
		c.Genes[g.Symbol] = &g
	}

	for name, d := range rf.Drugs {
		drug := &DrugRules{
			Drug:            strings.ToUpper(name),
			PrimaryGene:     d.PrimaryGene,
			GuidelineSource: d.GuidelineSource,
			Phenotypes:      make(map[domain.Phenotype]GuidelineRule, len(d.Phenotypes)),
		}
		for pheno, rule := range d.Phenotypes {
			drug.Phenotypes[domain.Phenotype(pheno)] = rule
		}
		c.Drugs[drug.Drug] = drug
	}

	if err := c.validate(allelePath, rulesPath); err != nil {
		return nil, err
	}
	c.buildIndex()
	return c, nil
}

// New assembles a catalog from already-constructed genes and drug tables,
// validating the same invariants as Load. Used by tests and tooling.
func New(version string, genes []*Gene, drugs []*DrugRules) (*Catalog, error) {
	c := &Catalog{
		Version: version,
		Genes:   make(map[string]*Gene, len(genes)),
		Drugs:   make(map[string]*DrugRules, len(drugs)),
	}
	for _, g := range genes {
		c.Genes[g.Symbol] = g
	}
	for _, d := range drugs {
		c.Drugs[strings.ToUpper(d.Drug)] = d
	}
	if err := c.validate("alleles", "rules"); err != nil {
		return nil, err
	}
	c.buildIndex()
	return c, nil
}

func (c *Catalog) validate(alleleSrc, rulesSrc string) error {
	if c.Version == "" {
		return domain.NewCatalogError(alleleSrc, "missing catalog version")
	}
	if len(c.Genes) == 0 {
		return domain.NewCatalogError(alleleSrc, "no genes defined")
	}
	if len(c.Drugs) == 0 {
		return domain.NewCatalogError(rulesSrc, "no drugs defined")
	}

	for symbol, g := range c.Genes {
		if g.WildType == "" {
			return domain.NewCatalogError(alleleSrc, "gene %s: missing wild-type allele", symbol)
		}
		if g.Allele(g.WildType) == nil {
			return domain.NewCatalogError(alleleSrc,
				"gene %s: wild-type allele %s not declared", symbol, g.WildType)
		}
		for _, a := range g.Alleles {
			if a.Activity != nil && *a.Activity < 0 {
				return domain.NewCatalogError(alleleSrc,
					"gene %s allele %s: negative activity value %f", symbol, a.Name, *a.Activity)
			}
			for _, rsid := range a.DefiningVariants {
				if g.Variant(rsid) == nil {
					return domain.NewCatalogError(alleleSrc,
						"gene %s allele %s: defining variant %s is not tracked", symbol, a.Name, rsid)
				}
			}
		}
	}

	for name, d := range c.Drugs {
		if _, ok := c.Genes[d.PrimaryGene]; !ok {
			return domain.NewCatalogError(rulesSrc,
				"drug %s: primary gene %s has no allele definitions", name, d.PrimaryGene)
		}
		// Every drug must carry a Normal Metabolizer rule: it is the
		// universal fallback for unrecognized phenotypes.
		if _, ok := d.Phenotypes[domain.NormalMetabolizer]; !ok {
			return domain.NewCatalogError(rulesSrc, "drug %s: missing NM rule", name)
		}
		for pheno, rule := range d.Phenotypes {
			if !pheno.IsValid() {
				return domain.NewCatalogError(rulesSrc, "drug %s: unknown phenotype %q", name, pheno)
			}
			if !rule.Severity.IsValid() {
				return domain.NewCatalogError(rulesSrc,
					"drug %s phenotype %s: unknown severity %q", name, pheno, rule.Severity)
			}
			if rule.RiskLabel == "" || rule.Recommendation == "" {
				return domain.NewCatalogError(rulesSrc,
					"drug %s phenotype %s: incomplete rule", name, pheno)
			}
		}
	}
	return nil
}

func (c *Catalog) buildIndex() {
	c.byRSID = make(map[string]trackedRef)
	c.byPosition = make(map[string]trackedRef)
	for symbol, g := range c.Genes {
		for i := range g.Variants {
			v := &g.Variants[i]
			c.byRSID[v.RSID] = trackedRef{gene: symbol, variant: v}
			c.byPosition[positionKey(v.Chromosome, v.Position)] = trackedRef{gene: symbol, variant: v}
		}
	}
}

func positionKey(chrom string, pos int64) string {
	return fmt.Sprintf("%s:%d", strings.TrimPrefix(strings.ToLower(chrom), "chr"), pos)
}

// LookupRSID resolves a tracked variant by reference SNP identifier
func (c *Catalog) LookupRSID(rsid string) (gene string, v *TrackedVariant, ok bool) {
	ref, ok := c.byRSID[rsid]
	if !ok {
		return "", nil, false
	}
	return ref.gene, ref.variant, true
}

// LookupPosition resolves a tracked variant by chromosome and position,
// tolerating a "chr" prefix on the chromosome name
func (c *Catalog) LookupPosition(chrom string, pos int64) (gene string, v *TrackedVariant, ok bool) {
	ref, ok := c.byPosition[positionKey(chrom, pos)]
	if !ok {
		return "", nil, false
	}
	return ref.gene, ref.variant, true
}

// Drug returns the rule table for a drug name, case-folded
func (c *Catalog) Drug(name string) (*DrugRules, bool) {
	d, ok := c.Drugs[strings.ToUpper(strings.TrimSpace(name))]
	return d, ok
}

// DrugNames returns all catalog drug names, sorted
func (c *Catalog) DrugNames() []string {
	names := make([]string, 0, len(c.Drugs))
	for name := range c.Drugs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GeneSymbols returns all catalog gene symbols, sorted
func (c *Catalog) GeneSymbols() []string {
	symbols := make([]string, 0, len(c.Genes))
	for symbol := range c.Genes {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)
	return symbols
}
