// Package vcf parses Variant Call Format files (versions 4.1-4.3) into
// normalized genotype calls for the positions tracked by the reference
// catalog. Only the first sample column is read.
package vcf

import (
	"bufio"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pharmaguard-server/internal/catalog"
	"github.com/pharmaguard-server/internal/domain"
)

const (
	colChrom = iota
	colPos
	colID
	colRef
	colAlt
	colQual
	colFilter
	colInfo
	colFormat
	colSample
)

// maxLineBytes bounds a single VCF line; annotation-heavy INFO fields can
// run long.
const maxLineBytes = 4 << 20

// Reader extracts tracked genotype calls from a variant-call stream
type Reader struct {
	catalog *catalog.Catalog
	logger  *logrus.Logger
}

// NewReader creates a reader bound to the tracked positions of a catalog
func NewReader(cat *catalog.Catalog, logger *logrus.Logger) *Reader {
	return &Reader{catalog: cat, logger: logger}
}

// Parse reads a VCF stream and returns one GenomicCall per tracked record
// that passed filtering. Records are matched by rsID first, then by
// (chromosome, position). A malformed file returns *domain.InputFormatError
// and no partial results. Uncalled genotypes at tracked positions are
// normalized to homozygous reference, a conservative choice that under-
// detects rather than over-calls.
func (r *Reader) Parse(src io.Reader) ([]domain.GenomicCall, error) {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var calls []domain.GenomicCall
	headerSeen := false
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "##") {
			continue
		}
		if strings.HasPrefix(line, "#") {
			if !strings.HasPrefix(line, "#CHROM") {
				return nil, domain.NewInputFormatError(lineNo, "unexpected header line %q", truncate(line, 40))
			}
			headerSeen = true
			continue
		}
		if !headerSeen {
			return nil, domain.NewInputFormatError(lineNo, "data line before #CHROM header")
		}

		call, matched, err := r.parseRecord(line, lineNo)
		if err != nil {
			return nil, err
		}
		if matched {
			calls = append(calls, *call)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, domain.NewInputFormatError(lineNo, "read failed: %v", err)
	}
	if !headerSeen {
		return nil, domain.NewInputFormatError(0, "missing #CHROM header line")
	}

	r.logger.WithFields(logrus.Fields{
		"lines":         lineNo,
		"tracked_calls": len(calls),
	}).Debug("Parsed variant file")

	return calls, nil
}

// parseRecord parses one data line, returning (call, true) when the record
// matches a tracked variant and passed filtering
func (r *Reader) parseRecord(line string, lineNo int) (*domain.GenomicCall, bool, error) {
	fields := strings.Split(line, "\t")
	if len(fields) < colInfo+1 {
		return nil, false, domain.NewInputFormatError(lineNo,
			"expected at least 8 tab-separated columns, got %d", len(fields))
	}

	gene, tracked := r.resolve(fields)
	if tracked == nil {
		return nil, false, nil
	}

	// Non-PASS records are excluded from evidence entirely.
	if filter := fields[colFilter]; filter != "PASS" && filter != "." && filter != "" {
		r.logger.WithFields(logrus.Fields{
			"rsid":   tracked.RSID,
			"filter": filter,
		}).Debug("Skipping tracked record with non-PASS filter")
		return nil, false, nil
	}

	gt, err := extractGenotype(fields, lineNo)
	if err != nil {
		return nil, false, err
	}

	alleles, err := resolveAlleles(gt, fields[colRef], fields[colAlt], lineNo)
	if err != nil {
		return nil, false, err
	}

	altCopies := 0
	for _, a := range alleles {
		if a == tracked.Alt {
			altCopies++
		}
	}
	sort.Strings(alleles[:])

	return &domain.GenomicCall{
		RSID:       tracked.RSID,
		Chromosome: tracked.Chromosome,
		Position:   tracked.Position,
		Gene:       gene,
		Genotype:   alleles[0] + alleles[1],
		AltCopies:  altCopies,
		Impact:     tracked.Impact,
	}, true, nil
}

// resolve matches a record against the tracked-variant index, by rsID when
// the ID column carries one, otherwise by chromosome and position
func (r *Reader) resolve(fields []string) (string, *catalog.TrackedVariant) {
	if id := fields[colID]; id != "" && id != "." {
		for _, one := range strings.Split(id, ";") {
			if gene, v, ok := r.catalog.LookupRSID(one); ok {
				return gene, v
			}
		}
	}
	pos, err := strconv.ParseInt(fields[colPos], 10, 64)
	if err != nil {
		return "", nil
	}
	if gene, v, ok := r.catalog.LookupPosition(fields[colChrom], pos); ok {
		return gene, v
	}
	return "", nil
}

// extractGenotype pulls the GT value of the first sample column
func extractGenotype(fields []string, lineNo int) (string, error) {
	if len(fields) < colSample+1 {
		return "", domain.NewInputFormatError(lineNo, "tracked record has no sample genotype column")
	}
	gtIndex := -1
	for i, key := range strings.Split(fields[colFormat], ":") {
		if key == "GT" {
			gtIndex = i
			break
		}
	}
	if gtIndex < 0 {
		return "", domain.NewInputFormatError(lineNo, "FORMAT column has no GT field")
	}
	sample := strings.Split(fields[colSample], ":")
	if gtIndex >= len(sample) {
		return "", domain.NewInputFormatError(lineNo, "sample column has no value for GT")
	}
	return sample[gtIndex], nil
}

// resolveAlleles converts a GT string into the two allele bases it denotes.
// Phase separators ("/", "|") are stripped; "." (uncalled) resolves to the
// reference base. Haploid calls are treated as homozygous.
func resolveAlleles(gt, ref, altField string, lineNo int) ([2]string, error) {
	var out [2]string
	tokens := strings.FieldsFunc(gt, func(r rune) bool { return r == '/' || r == '|' })
	switch len(tokens) {
	case 1:
		tokens = []string{tokens[0], tokens[0]}
	case 2:
	default:
		return out, domain.NewInputFormatError(lineNo, "malformed genotype %q", gt)
	}

	alts := strings.Split(altField, ",")
	for i, tok := range tokens {
		switch {
		case tok == "." || tok == "":
			out[i] = ref
		default:
			idx, err := strconv.Atoi(tok)
			if err != nil || idx < 0 || idx > len(alts) {
				return out, domain.NewInputFormatError(lineNo, "invalid allele index %q in genotype %q", tok, gt)
			}
			if idx == 0 {
				out[i] = ref
			} else {
				out[i] = alts[idx-1]
			}
		}
	}
	return out, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
