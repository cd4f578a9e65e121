package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phenosum/domain/core"
	"phenosum/domain/diagnosis"
	"phenosum/domain/table"
	"phenosum/internal"
	"phenosum/internal/config"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func diagnosisTable() *table.Table {
	header := []string{diagnosis.IdentifierField}
	header = append(header, diagnosis.SlotColumns()...)
	row := func(id string, cats ...string) []string {
		r := make([]string, len(header))
		r[0] = id
		for s, cat := range cats {
			r[1+2*s] = cat
		}
		return r
	}
	t, _ := table.FromRecords(header, [][]string{
		row("A", "ADHD", "Anxiety Disorders"),
		row("B", "Depressive Disorders"),
		row("C", "ADHD"),
		row("D", "Anxiety Disorders"),
	})
	return t
}

func modelTable() *table.Table {
	t, _ := table.FromRecords(
		[]string{"model_name", "sex", "data", "assessment", "clf", "category_new", "age", "roc_auc_score"},
		[][]string{
			{"m1", "all", "data", "Parent Measures", "DecisionTreeClassifier", "Depressive Disorders", "10-12", "0.7"},
			{"m1", "0", "data", "Parent Measures", "DecisionTreeClassifier", "Depressive Disorders", "10", "0.6"},
			{"m1", "all", "null", "Parent Measures", "DecisionTreeClassifier", "Depressive Disorders", "10-12", "0.5"},
		})
	return t
}

func newTestServer(loaders Loaders) *Server {
	analysis := config.DefaultAnalysis()
	analysis.ModelNames = []string{"m1"}
	return NewServer(loaders, analysis, internal.NewLoggerTo(io.Discard, internal.LogLevelError))
}

func staticLoaders() Loaders {
	return Loaders{
		Diagnosis:    func(context.Context) (*table.Table, error) { return diagnosisTable(), nil },
		ModelResults: func(context.Context) (*table.Table, error) { return modelTable(), nil },
	}
}

func get(t *testing.T, s *Server, url string) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, url, nil)
	s.Handler().ServeHTTP(w, req)
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func decodeTable(t *testing.T, w *httptest.ResponseRecorder) TableResponse {
	t.Helper()
	var resp TableResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func TestHealth(t *testing.T) {
	w, body := get(t, newTestServer(staticLoaders()), "/healthz")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestComorbidities(t *testing.T) {
	s := newTestServer(staticLoaders())
	w, _ := get(t, s, "/api/comorbidities?disorder=ADHD")
	require.Equal(t, http.StatusOK, w.Code)

	resp := decodeTable(t, w)
	assert.Equal(t, []string{"Diagnosis", "Count", "Percent", "Category", "Diagnosis Categories"}, resp.Columns)
	require.Len(t, resp.Rows, diagnosis.SlotCount)
	assert.Equal(t, []string{"ADHD", "2", "50", "DX_01_Cat_new", "01"}, resp.Rows[0])

	w, _ = get(t, s, "/api/comorbidities")
	assert.Len(t, decodeTable(t, w).Rows, diagnosis.SlotCount*4)
}

func TestDiagnosisCount(t *testing.T) {
	s := newTestServer(staticLoaders())
	w, _ := get(t, s, "/api/diagnoses/count?label=Anxiety%20Disorders")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeTable(t, w)
	assert.Equal(t, []string{"1", "DX_01_Cat_new", "Anxiety Disorders"}, resp.Rows[0])
	assert.Equal(t, []string{"1", "DX_02_Cat_new", "Anxiety Disorders"}, resp.Rows[1])

	w, body := get(t, s, "/api/diagnoses/count")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestModelsDefaultCriteria(t *testing.T) {
	w, _ := get(t, newTestServer(staticLoaders()), "/api/models")
	require.Equal(t, http.StatusOK, w.Code)
	resp := decodeTable(t, w)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "all", resp.Rows[0][1])
	assert.Equal(t, "data", resp.Rows[0][2])
}

func TestModelsQueryOverrides(t *testing.T) {
	w, _ := get(t, newTestServer(staticLoaders()), "/api/models?sex=all&sex=0&data=data&data=null")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeTable(t, w).Rows, 3)
}

func TestModelSummary(t *testing.T) {
	w, body := get(t, newTestServer(staticLoaders()), "/api/models/summary?sex=all&data=data&data=null&hue=data")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.5, body["chance_level"])
	summaries := body["summaries"].([]interface{})
	require.Len(t, summaries, 2)
	first := summaries[0].(map[string]interface{})
	assert.Equal(t, "Depressive Disorders", first["group"])
	assert.Equal(t, "data", first["hue"])

	w, body = get(t, newTestServer(staticLoaders()), "/api/models/summary?metric=accuracy")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", body["code"])
}

func TestMissingInputIsNotFound(t *testing.T) {
	loaders := staticLoaders()
	loaders.ModelResults = func(context.Context) (*table.Table, error) {
		return nil, core.NewMissingInputError("/data/Clinical_Diagnosis_Demographics.csv")
	}
	w, body := get(t, newTestServer(loaders), "/api/models")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "MISSING_INPUT", body["code"])
}

func TestCacheCoalescesLoads(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	load := func(context.Context) (*table.Table, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return modelTable(), nil
	}

	cache := NewCache()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tbl, err := cache.Get(context.Background(), ModelResultsKey, load)
			assert.NoError(t, err)
			assert.Equal(t, 3, tbl.NumRows())
		}()
	}
	close(release)
	wg.Wait()

	_, err := cache.Get(context.Background(), ModelResultsKey, load)
	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&calls), int32(8))

	before := atomic.LoadInt32(&calls)
	cache.Reset()
	_, err = cache.Get(context.Background(), ModelResultsKey, load)
	require.NoError(t, err)
	assert.Equal(t, before+1, atomic.LoadInt32(&calls))
}

func TestCacheLoadOutlivesFirstCaller(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	var calls int32
	load := func(ctx context.Context) (*table.Table, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
		}
		<-release
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		return modelTable(), nil
	}

	cache := NewCache()
	first, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := cache.Get(first, ModelResultsKey, load)
		firstErr <- err
	}()
	<-started

	type result struct {
		tbl *table.Table
		err error
	}
	second := make(chan result, 1)
	go func() {
		tbl, err := cache.Get(context.Background(), ModelResultsKey, load)
		second <- result{tbl, err}
	}()

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	res := <-second
	require.NoError(t, res.err)
	assert.Equal(t, 3, res.tbl.NumRows())

	tbl, err := cache.Get(context.Background(), ModelResultsKey, load)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.NumRows())
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestCacheDoesNotKeepFailures(t *testing.T) {
	cache := NewCache()
	fail := true
	load := func(context.Context) (*table.Table, error) {
		if fail {
			return nil, core.ErrMalformedTable
		}
		return modelTable(), nil
	}
	_, err := cache.Get(context.Background(), "k", load)
	assert.ErrorIs(t, err, core.ErrMalformedTable)

	fail = false
	tbl, err := cache.Get(context.Background(), "k", load)
	require.NoError(t, err)
	assert.Equal(t, 3, tbl.NumRows())
}
