package api

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"phenosum/domain/core"
	"phenosum/domain/table"
	"phenosum/internal/comorbidity"
	"phenosum/internal/errors"
	"phenosum/internal/modelresults"
)

// TableResponse is the JSON form of a table
type TableResponse struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NewTableResponse converts a table for the wire
func NewTableResponse(t *table.Table) TableResponse {
	return TableResponse{Columns: t.Labels(), Rows: t.Records()}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleComorbidities(c *gin.Context) {
	diag, err := s.cache.Get(c.Request.Context(), DiagnosisKey, s.loaders.Diagnosis)
	if err != nil {
		s.fail(c, err)
		return
	}

	disorders := s.analysis.ComorbidDisorders
	if values, ok := c.GetQueryArray("disorder"); ok {
		disorders = values
	}
	counts, err := comorbidity.Comorbidities(diag, disorders)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTableResponse(comorbidity.ComorbidityTable(counts)))
}

func (s *Server) handleDiagnosisCount(c *gin.Context) {
	label := c.Query("label")
	if label == "" {
		s.fail(c, errors.InvalidInput("label query parameter is required"))
		return
	}
	diag, err := s.cache.Get(c.Request.Context(), DiagnosisKey, s.loaders.Diagnosis)
	if err != nil {
		s.fail(c, err)
		return
	}
	counts, err := comorbidity.CountDiagnosis(diag, label)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTableResponse(comorbidity.DiagnosisCountTable(counts)))
}

func (s *Server) handleModels(c *gin.Context) {
	filtered, err := s.filteredModels(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, NewTableResponse(filtered))
}

func (s *Server) handleModelSummary(c *gin.Context) {
	filtered, err := s.filteredModels(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	summaries, err := modelresults.Summarize(filtered, modelresults.SummaryRequest{
		Group:  c.Query("group"),
		Hue:    c.Query("hue"),
		Metric: c.Query("metric"),
	})
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"chance_level": modelresults.ChanceLevel,
		"summaries":    summaries,
	})
}

func (s *Server) handleCacheReset(c *gin.Context) {
	s.cache.Reset()
	c.JSON(http.StatusOK, gin.H{"status": "reset"})
}

func (s *Server) filteredModels(c *gin.Context) (*table.Table, error) {
	models, err := s.cache.Get(c.Request.Context(), ModelResultsKey, s.loaders.ModelResults)
	if err != nil {
		return nil, err
	}
	return modelresults.Filter(models, criteriaFromQuery(c, s.analysis.ModelNames))
}

// criteriaFromQuery starts from the default criteria and replaces every list
// named in the query string.
func criteriaFromQuery(c *gin.Context, modelNames []string) modelresults.Criteria {
	criteria := modelresults.DefaultCriteria()
	if len(modelNames) > 0 {
		criteria.ModelNames = modelNames
	}
	override := func(key string, dst *[]string) {
		if values, ok := c.GetQueryArray(key); ok {
			*dst = values
		}
	}
	override("model_name", &criteria.ModelNames)
	override("sex", &criteria.Sexes)
	override("data", &criteria.DataVariants)
	override("assessment", &criteria.Assessments)
	override("clf", &criteria.Classifiers)
	override("category_new", &criteria.Categories)
	override("age", &criteria.Ages)
	return criteria
}

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	code := errors.GetCode(err)
	switch {
	case code == errors.CodeInvalidInput, stderrors.Is(err, core.ErrMissingColumn):
		status, code = http.StatusBadRequest, errors.CodeInvalidInput
	case code == errors.CodeNotFound:
		status = http.StatusNotFound
	case core.IsMissingInput(err):
		status, code = http.StatusNotFound, errors.CodeMissingInput
	default:
		code = errors.CodeInternalError
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error(), "code": code})
}
