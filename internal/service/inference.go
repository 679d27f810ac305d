package service

import (
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/catalog"
	"github.com/pharmaguard-server/internal/domain"
)

// InferenceEngine maps detected genotypes to star alleles and assembles a
// diplotype per gene. The matching is greedy over unphased genotypes: it
// always returns exactly one diplotype, the highest-scoring explanation of
// the observed variants, and never attempts haplotype phasing.
type InferenceEngine struct {
	logger *logrus.Logger
}

// NewInferenceEngine creates a new allele inference engine
func NewInferenceEngine(logger *logrus.Logger) *InferenceEngine {
	return &InferenceEngine{logger: logger}
}

// alleleMatch scores one candidate star allele against the observed calls
type alleleMatch struct {
	allele *catalog.StarAllele
	// order is the allele's catalog declaration index; equal scores break
	// on it so inference stays deterministic across runs.
	order int
	// score is the matched fraction of the allele's defining variants, so
	// a fully matched multi-variant allele outranks partial matches.
	score float64
	// homozygous is set when every defining variant was observed with two
	// alternate copies; such an allele occupies both diplotype slots.
	homozygous bool
}

// InferDiplotype infers the diplotype for one gene from its observed calls.
// Missing data never fails: with no detected variants the homozygous
// wild-type pair is returned, and callers treat that as reduced confidence,
// not as an error.
func (e *InferenceEngine) InferDiplotype(gene *catalog.Gene, calls []domain.GenomicCall) domain.Diplotype {
	altCopies := make(map[string]int, len(calls))
	for _, c := range calls {
		if c.AltCopies > 0 {
			altCopies[c.RSID] = c.AltCopies
		}
	}

	var candidates []alleleMatch
	for i := range gene.Alleles {
		a := &gene.Alleles[i]
		if len(a.DefiningVariants) == 0 {
			continue
		}
		matched := 0
		hom := true
		for _, rsid := range a.DefiningVariants {
			copies := altCopies[rsid]
			if copies > 0 {
				matched++
			}
			if copies != 2 {
				hom = false
			}
		}
		if matched == 0 {
			continue
		}
		candidates = append(candidates, alleleMatch{
			allele:     a,
			order:      i,
			score:      float64(matched) / float64(len(a.DefiningVariants)),
			homozygous: hom && matched == len(a.DefiningVariants),
		})
	}

	wt := gene.WildType
	if len(candidates) == 0 {
		return domain.NewDiplotype(wt, wt)
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].order < candidates[j].order
	})

	best := candidates[0]
	var d domain.Diplotype
	switch {
	case best.homozygous:
		d = domain.NewDiplotype(best.allele.Name, best.allele.Name)
	case len(candidates) > 1:
		d = domain.NewDiplotype(best.allele.Name, candidates[1].allele.Name)
	default:
		d = domain.NewDiplotype(wt, best.allele.Name)
	}

	e.logger.WithFields(logrus.Fields{
		"gene":       gene.Symbol,
		"diplotype":  d.String(),
		"candidates": len(candidates),
	}).Debug("Inferred diplotype")

	return d
}

// DefinedBy returns the gene's star alleles whose definitions include the
// given variant, in catalog declaration order. Used to annotate evidence.
func DefinedBy(gene *catalog.Gene, rsid string) []string {
	var names []string
	for i := range gene.Alleles {
		for _, dv := range gene.Alleles[i].DefiningVariants {
			if dv == rsid {
				names = append(names, gene.Alleles[i].Name)
				break
			}
		}
	}
	return names
}
