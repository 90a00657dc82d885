package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/opsintel/backend/internal/ai"
	"github.com/opsintel/backend/internal/clipboard"
	"github.com/opsintel/backend/internal/models"
	"github.com/opsintel/backend/internal/session"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakePublisher struct {
	key  string
	data []byte
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, key string, data []byte) (string, error) {
	p.key = key
	p.data = data
	if p.err != nil {
		return "", p.err
	}
	return "https://exports.example/" + key, nil
}

type testEnv struct {
	router *gin.Engine
	ctrl   *session.Controller
}

func newEnv(t *testing.T, exports Publisher) testEnv {
	t.Helper()
	ctrl := session.New(session.Options{
		Analyzer:         ai.MockAnalyzer{},
		Clipboard:        clipboard.Static{Text: `[{"ticket_id":"CLIP-1"}]`},
		Logger:           zerolog.Nop(),
		ProgressInterval: time.Millisecond,
	})
	t.Cleanup(ctrl.Close)

	h := &Handler{
		Session:       ctrl,
		Exports:       exports,
		Validator:     validator.New(),
		Logger:        zerolog.Nop(),
		MaxUploadSize: 1 << 20,
		Now:           func() time.Time { return time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC) },
	}

	r := gin.New()
	r.GET("/healthz", h.Healthz)
	r.GET("/api/datasets", h.DatasetsList)
	r.POST("/api/datasets/:id/activate", h.Activate)
	r.POST("/api/datasets/:id/upload", h.Upload)
	r.POST("/api/datasets/:id/paste", h.Paste)
	r.PUT("/api/datasets/:id/content", h.SetContent)
	r.POST("/api/datasets/:id/sample", h.LoadSample)
	r.GET("/api/datasets/:id/analysis", h.Analysis)
	r.GET("/api/datasets/:id/dashboard", h.Dashboard)
	r.GET("/api/datasets/:id/export/:table", h.Export)
	r.DELETE("/api/datasets/:id", h.ResetDataset)
	r.POST("/api/reset", h.ResetAll)
	r.POST("/api/global/synthesize", h.Synthesize)
	r.GET("/api/global", h.Global)
	r.DELETE("/api/error", h.DismissError)
	r.GET("/api/archive", h.ArchiveList)
	return testEnv{router: r, ctrl: ctrl}
}

func (e testEnv) do(t *testing.T, method, path string, body []byte, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func (e testEnv) settle(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := e.ctrl.Wait(ctx); err != nil {
		t.Fatalf("settle: %v", err)
	}
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Error ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body: %v (%s)", err, w.Body.String())
	}
	return body.Error.Code
}

func uploadBody(t *testing.T, filename, content string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf.Bytes(), writer.FormDataContentType()
}

func TestHealthzWithoutArchive(t *testing.T) {
	env := newEnv(t, nil)
	w := env.do(t, http.MethodGet, "/healthz", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestUploadCSVOnActiveDatasetStartsAnalysis(t *testing.T) {
	env := newEnv(t, nil)
	body, ct := uploadBody(t, "week.csv", "ticket_id,created_at\nINC-1,2023-11-01T08:00:00Z\n")

	w := env.do(t, http.MethodPost, "/api/datasets/curr/upload", body, ct)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var resp ActionResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Started {
		t.Fatalf("expected analysis to start for the active dataset")
	}
	env.settle(t)

	content, _ := env.ctrl.Content("curr")
	if !strings.Contains(content, `"ticket_id": "INC-1"`) {
		t.Fatalf("expected csv converted to json, got %s", content)
	}

	w = env.do(t, http.MethodGet, "/api/datasets/curr/analysis", nil, "")
	var view session.AnalysisView
	_ = json.Unmarshal(w.Body.Bytes(), &view)
	if view.Status != models.StatusCompleted || view.Result == nil {
		t.Fatalf("unexpected analysis view %+v", view)
	}
}

func TestUploadRejectsUnsupportedFormat(t *testing.T) {
	env := newEnv(t, nil)
	body, ct := uploadBody(t, "notes.txt", "hello")

	w := env.do(t, http.MethodPost, "/api/datasets/curr/upload", body, ct)
	if w.Code != http.StatusUnsupportedMediaType || errorCode(t, w) != "UNSUPPORTED_FORMAT" {
		t.Fatalf("expected 415 UNSUPPORTED_FORMAT, got %d %s", w.Code, w.Body.String())
	}
	if _, ok := env.ctrl.Content("curr"); ok {
		t.Fatalf("dataset content must stay untouched")
	}
}

func TestUploadCorruptSpreadsheet(t *testing.T) {
	env := newEnv(t, nil)
	body, ct := uploadBody(t, "broken.xlsx", "not a zip")

	w := env.do(t, http.MethodPost, "/api/datasets/prev/upload", body, ct)
	if w.Code != http.StatusUnprocessableEntity || errorCode(t, w) != "PARSE_ERROR" {
		t.Fatalf("expected 422 PARSE_ERROR, got %d %s", w.Code, w.Body.String())
	}
}

func TestUploadTooLarge(t *testing.T) {
	env := newEnv(t, nil)
	body, ct := uploadBody(t, "big.json", strings.Repeat("x", 2<<20))

	w := env.do(t, http.MethodPost, "/api/datasets/curr/upload", body, ct)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

// countingReader records how much of a request body the handler consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func TestUploadTooLargeStopsReadingBody(t *testing.T) {
	env := newEnv(t, nil)

	const boundary = "opsintel-boundary"
	head := "--" + boundary + "\r\n" +
		`Content-Disposition: form-data; name="file"; filename="huge.csv"` + "\r\n" +
		"Content-Type: text/csv\r\n\r\n"
	tail := "\r\n--" + boundary + "--\r\n"
	const fileSize = 16 << 20
	body := &countingReader{r: io.MultiReader(
		strings.NewReader(head),
		io.LimitReader(repeatReader('x'), fileSize),
		strings.NewReader(tail),
	)}

	req := httptest.NewRequest(http.MethodPost, "/api/datasets/curr/upload", body)
	req.Header.Set("Content-Type", "multipart/form-data; boundary="+boundary)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge || errorCode(t, w) != "FILE_TOO_LARGE" {
		t.Fatalf("expected 413 FILE_TOO_LARGE, got %d %s", w.Code, w.Body.String())
	}
	if body.n >= fileSize/2 {
		t.Fatalf("oversized body was read to %d bytes", body.n)
	}
	if _, ok := env.ctrl.Content("curr"); ok {
		t.Fatalf("rejected upload must not store content")
	}
}

func TestUploadJustOverLimit(t *testing.T) {
	env := newEnv(t, nil)
	body, ct := uploadBody(t, "edge.json", strings.Repeat("x", 1<<20+1))

	w := env.do(t, http.MethodPost, "/api/datasets/curr/upload", body, ct)
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", w.Code)
	}
}

type repeatReader byte

func (r repeatReader) Read(p []byte) (int, error) {
	for i := range p {
		p[i] = byte(r)
	}
	return len(p), nil
}

func TestSetContentValidation(t *testing.T) {
	env := newEnv(t, nil)

	w := env.do(t, http.MethodPut, "/api/datasets/prev/content", []byte(`{"content":""}`), "application/json")
	if w.Code != http.StatusBadRequest || errorCode(t, w) != "VALIDATION_ERROR" {
		t.Fatalf("expected validation error, got %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPut, "/api/datasets/nope/content", []byte(`{"content":"x"}`), "application/json")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}

	w = env.do(t, http.MethodPut, "/api/datasets/prev/content", []byte(`{"content":"[]"}`), "application/json")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var resp ActionResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.Started {
		t.Fatalf("inactive dataset must not start analysis")
	}
}

func TestPasteAndBusyConflict(t *testing.T) {
	env := newEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/datasets/curr/paste", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	env.settle(t)

	w = env.do(t, http.MethodPost, "/api/datasets/curr/sample", nil, "")
	if w.Code != http.StatusConflict || errorCode(t, w) != "DATASET_BUSY" {
		t.Fatalf("expected 409 DATASET_BUSY, got %d %s", w.Code, w.Body.String())
	}
}

func TestDashboardAndExport(t *testing.T) {
	pub := &fakePublisher{}
	env := newEnv(t, pub)

	w := env.do(t, http.MethodGet, "/api/datasets/curr/dashboard", nil, "")
	if w.Code != http.StatusNotFound || errorCode(t, w) != "NO_RESULT" {
		t.Fatalf("expected NO_RESULT before analysis, got %d %s", w.Code, w.Body.String())
	}

	env.do(t, http.MethodPost, "/api/datasets/curr/sample", nil, "")
	env.settle(t)

	w = env.do(t, http.MethodGet, "/api/datasets/curr/dashboard", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	var dash struct {
		KPIs    []map[string]any `json:"kpis"`
		Heatmap struct {
			Cells [][]map[string]any `json:"cells"`
		} `json:"heatmap"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &dash)
	if len(dash.KPIs) != 4 || len(dash.Heatmap.Cells) != 7 {
		t.Fatalf("unexpected dashboard %s", w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/datasets/curr/export/staffing_recommendations", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("Content-Disposition"); got != `attachment; filename="staffing_recommendations_2026-10-19.csv"` {
		t.Fatalf("unexpected disposition %q", got)
	}
	if !strings.HasPrefix(w.Body.String(), `"shift_name","current_estimated_agents"`) {
		t.Fatalf("unexpected csv %s", w.Body.String())
	}

	w = env.do(t, http.MethodGet, "/api/datasets/curr/export/benchmarks?publish=1", nil, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", w.Code, w.Body.String())
	}
	if pub.key != "exports/curr/historical_benchmarking_2026-10-19.csv" || len(pub.data) == 0 {
		t.Fatalf("unexpected publish %q", pub.key)
	}

	w = env.do(t, http.MethodGet, "/api/datasets/curr/export/heatmap", nil, "")
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown table, got %d", w.Code)
	}
}

func TestExportPublishNotConfigured(t *testing.T) {
	env := newEnv(t, nil)
	env.do(t, http.MethodPost, "/api/datasets/curr/sample", nil, "")
	env.settle(t)

	w := env.do(t, http.MethodGet, "/api/datasets/curr/export/benchmarks?publish=true", nil, "")
	if w.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", w.Code)
	}
}

func TestExportPublishFailure(t *testing.T) {
	env := newEnv(t, &fakePublisher{err: errors.New("bucket gone")})
	env.do(t, http.MethodPost, "/api/datasets/curr/sample", nil, "")
	env.settle(t)

	w := env.do(t, http.MethodGet, "/api/datasets/curr/export/benchmarks?publish=1", nil, "")
	if w.Code != http.StatusBadGateway || errorCode(t, w) != "PUBLISH_FAILED" {
		t.Fatalf("expected 502 PUBLISH_FAILED, got %d", w.Code)
	}
}

func TestSynthesisFlow(t *testing.T) {
	env := newEnv(t, nil)

	w := env.do(t, http.MethodPost, "/api/global/synthesize", nil, "")
	var resp SynthesizeResponse
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if w.Code != http.StatusOK || resp.Started || resp.Global.Status != models.StatusIdle {
		t.Fatalf("expected refused synthesis, got %d %s", w.Code, w.Body.String())
	}

	for _, id := range []string{"curr", "prev"} {
		env.do(t, http.MethodPost, "/api/datasets/"+id+"/sample", nil, "")
		env.do(t, http.MethodPost, "/api/datasets/"+id+"/activate", nil, "")
		env.settle(t)
	}

	w = env.do(t, http.MethodPost, "/api/global/synthesize", nil, "")
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if !resp.Started {
		t.Fatalf("expected synthesis to start with two results: %s", w.Body.String())
	}
	env.settle(t)

	w = env.do(t, http.MethodGet, "/api/global", nil, "")
	var global session.GlobalView
	_ = json.Unmarshal(w.Body.Bytes(), &global)
	if global.Status != models.StatusCompleted || global.Result == nil || global.Ready != 2 {
		t.Fatalf("unexpected global view %s", w.Body.String())
	}
}

func TestResetRoutes(t *testing.T) {
	env := newEnv(t, nil)
	for _, id := range []string{"curr", "prev"} {
		env.do(t, http.MethodPost, "/api/datasets/"+id+"/sample", nil, "")
		env.do(t, http.MethodPost, "/api/datasets/"+id+"/activate", nil, "")
		env.settle(t)
	}

	w := env.do(t, http.MethodDelete, "/api/datasets/curr", nil, "")
	var snap session.Snapshot
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if w.Code != http.StatusOK || snap.Ready != 1 {
		t.Fatalf("expected one dataset left, got %d %s", w.Code, w.Body.String())
	}

	w = env.do(t, http.MethodPost, "/api/reset", nil, "")
	_ = json.Unmarshal(w.Body.Bytes(), &snap)
	if snap.Ready != 0 || snap.SynthesisAvailable {
		t.Fatalf("expected empty session, got %s", w.Body.String())
	}

	w = env.do(t, http.MethodDelete, "/api/error", nil, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", w.Code)
	}
}

func TestArchiveListNotConfigured(t *testing.T) {
	env := newEnv(t, nil)
	w := env.do(t, http.MethodGet, "/api/archive", nil, "")
	if w.Code != http.StatusNotImplemented {
		t.Fatalf("expected 501, got %d", w.Code)
	}
}
