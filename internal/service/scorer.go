package service

import (
	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/catalog"
	"github.com/pharmaguard-server/internal/domain"
)

// ActivityScorer translates diplotypes into metabolizer phenotypes. Genes
// with numeric allele activity values get an activity score (sum of the two
// allele activities); genes scored categorically map allele function classes
// straight to a phenotype and carry no activity score.
type ActivityScorer struct {
	logger *logrus.Logger
}

// NewActivityScorer creates a new activity scorer
func NewActivityScorer(logger *logrus.Logger) *ActivityScorer {
	return &ActivityScorer{logger: logger}
}

// Score computes the phenotype and activity score for a diplotype. Alleles
// absent from the gene definition contribute wild-type activity so a stale
// diplotype still scores rather than panics.
func (s *ActivityScorer) Score(gene *catalog.Gene, d domain.Diplotype) (domain.Phenotype, *float64) {
	a1 := gene.Allele(d.Allele1)
	a2 := gene.Allele(d.Allele2)
	if a1 == nil {
		a1 = gene.Allele(gene.WildType)
	}
	if a2 == nil {
		a2 = gene.Allele(gene.WildType)
	}

	if !gene.HasActivityScores() {
		return categoricalPhenotype(a1, a2), nil
	}

	total := 0.0
	if a1 != nil && a1.Activity != nil {
		total += *a1.Activity
	}
	if a2 != nil && a2.Activity != nil {
		total += *a2.Activity
	}
	activity := total
	pheno := PhenotypeForActivity(activity)

	s.logger.WithFields(logrus.Fields{
		"gene":      gene.Symbol,
		"diplotype": d.String(),
		"activity":  activity,
		"phenotype": pheno,
	}).Debug("Scored diplotype")

	return pheno, &activity
}

// PhenotypeForActivity maps a summed activity score onto the standard
// metabolizer bands. Band upper bounds are inclusive.
func PhenotypeForActivity(activity float64) domain.Phenotype {
	switch {
	case activity == 0:
		return domain.PoorMetabolizer
	case activity <= 0.75:
		return domain.IntermediateMetabolizer
	case activity <= 2.0:
		return domain.NormalMetabolizer
	case activity <= 2.25:
		return domain.RapidMetabolizer
	default:
		return domain.UltrarapidMetabolizer
	}
}

// categoricalPhenotype classifies function-class genes where per-allele
// activity values are not established.
func categoricalPhenotype(a1, a2 *catalog.StarAllele) domain.Phenotype {
	f1 := domain.FunctionNormal
	f2 := domain.FunctionNormal
	if a1 != nil {
		f1 = a1.Function
	}
	if a2 != nil {
		f2 = a2.Function
	}

	switch {
	case f1 == domain.FunctionNonfunctional && f2 == domain.FunctionNonfunctional:
		return domain.PoorMetabolizer
	case f1.Impaired() || f2.Impaired():
		return domain.IntermediateMetabolizer
	case f1 == domain.FunctionIncreased || f2 == domain.FunctionIncreased:
		return domain.RapidMetabolizer
	default:
		return domain.NormalMetabolizer
	}
}
