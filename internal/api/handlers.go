package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/pharmaguard-server/internal/domain"
)

type assessDrugsRequest struct {
	Drugs []string `json:"drugs" binding:"required,min=1"`
}

type counterfactualRequest struct {
	Drug      string `json:"drug" binding:"required"`
	Phenotype string `json:"phenotype" binding:"required"`
}

// handleListDrugs lists the drugs present in the loaded guideline catalog
func (s *Server) handleListDrugs(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"catalog_version": s.catalog.Version,
		"drugs":           s.assessor.Drugs(),
	})
}

// handleAssess runs assessments for the uploaded VCF and requested drugs.
// Unknown drugs yield sentinel results alongside per-drug errors; the
// request itself still succeeds.
func (s *Server) handleAssess(c *gin.Context) {
	profiles, ok := s.parseUpload(c)
	if !ok {
		return
	}
	drugs, ok := s.formDrugs(c)
	if !ok {
		return
	}

	results := make([]domain.AssessmentResult, 0, len(drugs))
	drugErrors := make([]domain.DrugError, 0)
	for _, drug := range drugs {
		result, err := s.assessor.AssessDrug(profiles, drug)
		if err != nil {
			drugErrors = append(drugErrors, domain.DrugError{Drug: drug, Error: err.Error()})
		}
		result.Explanation, result.ExplanationSource = s.explain.Explain(c.Request.Context(), result)
		results = append(results, *result)
	}

	c.JSON(http.StatusOK, gin.H{
		"results": results,
		"errors":  drugErrors,
	})
}

// handleAssessBatch runs a batch assessment with cumulative burden scoring
func (s *Server) handleAssessBatch(c *gin.Context) {
	profiles, ok := s.parseUpload(c)
	if !ok {
		return
	}
	// An empty drug list means the whole catalog.
	drugs := s.formDrugValues(c)
	if len(drugs) == 0 {
		drugs = s.catalog.DrugNames()
	}

	batch := s.assessor.AssessBatch(c.Request.Context(), profiles, drugs)
	c.JSON(http.StatusOK, batch)
}

// handleCreateSession parses the upload once and stores the resulting
// profiles for follow-up assessments
func (s *Server) handleCreateSession(c *gin.Context) {
	s.limitBody(c)
	file, _, err := c.Request.FormFile("vcf")
	if err != nil {
		s.writeError(c, domain.NewInputFormatError(0, "missing vcf upload: %v", err))
		return
	}
	defer file.Close()

	calls, err := s.reader.Parse(file)
	if err != nil {
		s.writeError(c, err)
		return
	}

	profiles := s.assessor.BuildProfiles(calls)
	entry := s.sessions.Put(profiles, calls)

	c.JSON(http.StatusCreated, gin.H{
		"session_id": entry.ID,
		"created_at": entry.CreatedAt,
		"genes":      profiles,
	})
}

// handleSessionAssess assesses drugs against a stored session
func (s *Server) handleSessionAssess(c *gin.Context) {
	entry, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	var req assessDrugsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewInputFormatError(0, "invalid request body: %v", err))
		return
	}

	batch := s.assessor.AssessBatch(c.Request.Context(), entry.Profiles, req.Drugs)
	c.JSON(http.StatusOK, batch)
}

// handleSessionCounterfactual re-assesses one drug under a simulated
// phenotype for its primary gene
func (s *Server) handleSessionCounterfactual(c *gin.Context) {
	entry, err := s.sessions.Get(c.Param("id"))
	if err != nil {
		s.writeError(c, err)
		return
	}

	var req counterfactualRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.writeError(c, domain.NewInputFormatError(0, "invalid request body: %v", err))
		return
	}

	pheno := domain.Phenotype(strings.ToUpper(strings.TrimSpace(req.Phenotype)))
	if !pheno.IsValid() {
		s.writeError(c, domain.NewInputFormatError(0, "unknown phenotype %q", req.Phenotype))
		return
	}

	result, err := s.assessor.Counterfactual(entry.Profiles, req.Drug, pheno)
	if err != nil {
		s.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleResetSessions drops every stored session
func (s *Server) handleResetSessions(c *gin.Context) {
	s.sessions.Reset()
	c.Status(http.StatusNoContent)
}

// parseUpload reads the multipart VCF upload and builds gene profiles. On
// failure it writes the error response and returns ok=false.
func (s *Server) parseUpload(c *gin.Context) (map[string]*domain.GeneProfile, bool) {
	s.limitBody(c)
	file, _, err := c.Request.FormFile("vcf")
	if err != nil {
		s.writeError(c, domain.NewInputFormatError(0, "missing vcf upload: %v", err))
		return nil, false
	}
	defer file.Close()

	calls, err := s.reader.Parse(file)
	if err != nil {
		s.writeError(c, err)
		return nil, false
	}

	return s.assessor.BuildProfiles(calls), true
}

// formDrugs extracts the requested drug names from the multipart form,
// requiring at least one
func (s *Server) formDrugs(c *gin.Context) ([]string, bool) {
	drugs := s.formDrugValues(c)
	if len(drugs) == 0 {
		s.writeError(c, domain.NewInputFormatError(0, "no drugs requested"))
		return nil, false
	}
	return drugs, true
}

// formDrugValues collects drug names from the "drug" and "drugs" form
// fields. Repeated fields and comma-separated lists are both accepted.
func (s *Server) formDrugValues(c *gin.Context) []string {
	var drugs []string
	fields := append(c.PostFormArray("drug"), c.PostFormArray("drugs")...)
	for _, field := range fields {
		for _, name := range strings.Split(field, ",") {
			name = strings.TrimSpace(name)
			if name != "" {
				drugs = append(drugs, name)
			}
		}
	}
	return drugs
}

func (s *Server) limitBody(c *gin.Context) {
	if s.config.Server.MaxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.Server.MaxUploadBytes)
	}
}

// writeError maps domain errors onto HTTP status codes and a stable error
// body shape
func (s *Server) writeError(c *gin.Context, err error) {
	var inputErr *domain.InputFormatError
	var sessionErr *domain.SessionNotFoundError
	var drugErr *domain.UnknownDrugError

	status := http.StatusInternalServerError
	code := domain.ErrInternalServer

	switch {
	case errors.As(err, &inputErr):
		status = http.StatusBadRequest
		code = domain.ErrInputFormat
	case errors.As(err, &sessionErr):
		status = http.StatusNotFound
		code = domain.ErrUnknownSession
	case errors.As(err, &drugErr):
		status = http.StatusNotFound
		code = domain.ErrUnknownDrug
	}

	if status == http.StatusInternalServerError {
		s.logger.WithField("error", err.Error()).Error("Request failed")
	}

	c.AbortWithStatusJSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": err.Error(),
		},
	})
}
