package service

import (
	"github.com/pharmaguard-server/internal/domain"
)

// nominalActivity is the representative activity score assumed for each
// simulated phenotype.
var nominalActivity = map[domain.Phenotype]float64{
	domain.PoorMetabolizer:         0.0,
	domain.IntermediateMetabolizer: 0.5,
	domain.NormalMetabolizer:       2.0,
	domain.RapidMetabolizer:        2.25,
	domain.UltrarapidMetabolizer:   2.5,
}

// Counterfactual re-assesses a drug under a hypothetical phenotype for its
// primary gene, answering "what would the guidance be if this patient were
// a poor metabolizer". The actual assessment is computed from the real
// profiles; the simulated one substitutes a synthetic profile carrying the
// nominal activity for the requested phenotype.
func (a *Assessor) Counterfactual(profiles map[string]*domain.GeneProfile, drug string, simulated domain.Phenotype) (*domain.CounterfactualResult, error) {
	rules, ok := a.catalog.Drug(drug)
	if !ok {
		return nil, &domain.UnknownDrugError{Drug: drug}
	}

	actual, err := a.AssessDrug(profiles, drug)
	if err != nil {
		return nil, err
	}

	gene := a.catalog.Genes[rules.PrimaryGene]
	synthetic := &domain.GeneProfile{
		Gene:      rules.PrimaryGene,
		Diplotype: domain.NewDiplotype(gene.WildType, gene.WildType),
		Phenotype: simulated,
	}
	if gene.HasActivityScores() {
		activity := nominalActivity[simulated]
		synthetic.ActivityScore = &activity
	}

	simProfiles := make(map[string]*domain.GeneProfile, len(profiles))
	for k, v := range profiles {
		simProfiles[k] = v
	}
	simProfiles[rules.PrimaryGene] = synthetic

	counterfactual, err := a.AssessDrug(simProfiles, drug)
	if err != nil {
		return nil, err
	}

	return &domain.CounterfactualResult{
		Drug:               rules.Drug,
		PrimaryGene:        rules.PrimaryGene,
		Actual:             actual,
		SimulatedPhenotype: simulated,
		Counterfactual:     counterfactual,
		RiskChanged:        actual.RiskLabel != counterfactual.RiskLabel,
	}, nil
}
