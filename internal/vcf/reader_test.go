package vcf

import (
	"io"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharmaguard-server/internal/catalog"
	"github.com/pharmaguard-server/internal/domain"
)

const vcfHeader = "##fileformat=VCFv4.2\n" +
	"##source=test\n" +
	"#CHROM\tPOS\tID\tREF\tALT\tQUAL\tFILTER\tINFO\tFORMAT\tSAMPLE1\n"

func testReader(t *testing.T) *Reader {
	t.Helper()

	activity := func(v float64) *float64 { return &v }
	genes := []*catalog.Gene{
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
	}
	drugs := []*catalog.DrugRules{
		{
			Drug:            "CLOPIDOGREL",
			PrimaryGene:     "CYP2C19",
			GuidelineSource: "CPIC",
			Phenotypes: map[domain.Phenotype]catalog.GuidelineRule{
				domain.NormalMetabolizer: {RiskLabel: "Safe", Severity: domain.SeverityNone, Recommendation: "Standard dosing"},
			},
		},
	}

	cat, err := catalog.New("test.1", genes, drugs)
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return NewReader(cat, logger)
}

func TestParseTrackedRecords(t *testing.T) {
	reader := testReader(t)
	body := vcfHeader +
		"10\t94781859\trs4244285\tG\tA\t100\tPASS\t.\tGT:DP\t0/1:30\n" +
		"10\t94761900\trs12248560\tC\tT\t100\tPASS\t.\tGT\t1|1\n" +
		"7\t117559590\trs113993960\tCTT\tC\t100\tPASS\t.\tGT\t0/1\n"

	calls, err := reader.Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, calls, 2)

	assert.Equal(t, "rs4244285", calls[0].RSID)
	assert.Equal(t, "CYP2C19", calls[0].Gene)
	assert.Equal(t, "AG", calls[0].Genotype)
	assert.Equal(t, 1, calls[0].AltCopies)
	assert.Equal(t, domain.ImpactSplice, calls[0].Impact)

	assert.Equal(t, "rs12248560", calls[1].RSID)
	assert.Equal(t, "TT", calls[1].Genotype)
	assert.Equal(t, 2, calls[1].AltCopies)
}

func TestParseMatchesByPosition(t *testing.T) {
	reader := testReader(t)
	body := vcfHeader +
		"chr10\t94781859\t.\tG\tA\t100\tPASS\t.\tGT\t1/1\n"

	calls, err := reader.Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "rs4244285", calls[0].RSID)
	assert.Equal(t, 2, calls[0].AltCopies)
}

func TestParseSkipsNonPassRecords(t *testing.T) {
	reader := testReader(t)
	body := vcfHeader +
		"10\t94781859\trs4244285\tG\tA\t100\tLowQual\t.\tGT\t1/1\n" +
		"10\t94761900\trs12248560\tC\tT\t100\tPASS\t.\tGT\t0/1\n"

	calls, err := reader.Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "rs12248560", calls[0].RSID)
}

func TestParseHomRefCall(t *testing.T) {
	reader := testReader(t)
	body := vcfHeader +
		"10\t94781859\trs4244285\tG\tA\t100\tPASS\t.\tGT\t0/0\n"

	calls, err := reader.Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "GG", calls[0].Genotype)
	assert.Zero(t, calls[0].AltCopies)
	assert.False(t, calls[0].Detected())
}

func TestParseUncalledGenotypeResolvesToReference(t *testing.T) {
	reader := testReader(t)
	body := vcfHeader +
		"10\t94781859\trs4244285\tG\tA\t100\tPASS\t.\tGT\t./.\n"

	calls, err := reader.Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "GG", calls[0].Genotype)
	assert.Zero(t, calls[0].AltCopies)
}

func TestParseHaploidCall(t *testing.T) {
	reader := testReader(t)
	body := vcfHeader +
		"10\t94781859\trs4244285\tG\tA\t100\tPASS\t.\tGT\t1\n"

	calls, err := reader.Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, calls, 1)
	assert.Equal(t, "AA", calls[0].Genotype)
	assert.Equal(t, 2, calls[0].AltCopies)
}

func TestParseMultiAllelicRecord(t *testing.T) {
	reader := testReader(t)
	body := vcfHeader +
		"10\t94781859\trs4244285\tG\tA,C\t100\tPASS\t.\tGT\t0/2\n"

	calls, err := reader.Parse(strings.NewReader(body))
	require.NoError(t, err)
	require.Len(t, calls, 1)
	// The second alternate is not the tracked allele.
	assert.Equal(t, "CG", calls[0].Genotype)
	assert.Zero(t, calls[0].AltCopies)
}

func TestParseErrors(t *testing.T) {
	reader := testReader(t)

	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing header",
			body: "10\t94781859\trs4244285\tG\tA\t100\tPASS\t.\tGT\t0/1\n",
		},
		{
			name: "empty input",
			body: "",
		},
		{
			name: "unexpected hash header",
			body: "#BOGUS\nfoo\n",
		},
		{
			name: "too few columns",
			body: vcfHeader + "10\t94781859\trs4244285\tG\tA\n",
		},
		{
			name: "tracked record without sample column",
			body: vcfHeader + "10\t94781859\trs4244285\tG\tA\t100\tPASS\t.\n",
		},
		{
			name: "format without GT",
			body: vcfHeader + "10\t94781859\trs4244285\tG\tA\t100\tPASS\t.\tDP\t30\n",
		},
		{
			name: "triploid genotype",
			body: vcfHeader + "10\t94781859\trs4244285\tG\tA\t100\tPASS\t.\tGT\t0/1/1\n",
		},
		{
			name: "allele index out of range",
			body: vcfHeader + "10\t94781859\trs4244285\tG\tA\t100\tPASS\t.\tGT\t0/5\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := reader.Parse(strings.NewReader(tt.body))
			require.Error(t, err)

			var inputErr *domain.InputFormatError
			assert.ErrorAs(t, err, &inputErr)
		})
	}
}

func TestParseIgnoresUntrackedMalformedRecords(t *testing.T) {
	reader := testReader(t)
	// The bad genotype sits on an untracked position, so it never reaches
	// genotype parsing.
	body := vcfHeader +
		"1\t12345\trs9999\tG\tA\t100\tPASS\t.\tGT\t0/1/1/1\n"

	calls, err := reader.Parse(strings.NewReader(body))
	require.NoError(t, err)
	assert.Empty(t, calls)
}
