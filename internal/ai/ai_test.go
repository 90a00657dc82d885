package ai

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/opsintel/backend/internal/models"
)

func mockResult(t *testing.T, content string) models.AnalysisResult {
	t.Helper()
	res, err := MockAnalyzer{}.Analyze(context.Background(), content)
	if err != nil {
		t.Fatalf("mock analyze: %v", err)
	}
	return res
}

func TestMockAnalysisPassesValidation(t *testing.T) {
	res := mockResult(t, `[{"ticket_id":"INC-1"}]`)
	b, _ := json.Marshal(res)
	parsed, err := ParseAnalysis(string(b))
	if err != nil {
		t.Fatalf("expected mock output to validate, got %v", err)
	}
	if parsed.SummaryMetrics.SLABreachRatePercent != res.SummaryMetrics.SLABreachRatePercent {
		t.Fatalf("round trip changed metrics")
	}
	if len(parsed.TemporalHeatmap) != 42 {
		t.Fatalf("expected 42 heatmap cells, got %d", len(parsed.TemporalHeatmap))
	}
}

func TestMockAnalysisDeterministic(t *testing.T) {
	a := mockResult(t, "same")
	b := mockResult(t, "same")
	if a.ExecutiveSummary != b.ExecutiveSummary || a.FinancialImpact != b.FinancialImpact {
		t.Fatalf("expected deterministic mock output")
	}
}

func TestParseAnalysisRejectsMissingSection(t *testing.T) {
	res := mockResult(t, "x")
	b, _ := json.Marshal(res)
	var doc map[string]any
	_ = json.Unmarshal(b, &doc)
	delete(doc, "baseline_metrics")
	b, _ = json.Marshal(doc)

	_, err := ParseAnalysis(string(b))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
	if !strings.Contains(err.Error(), "baseline_metrics") {
		t.Fatalf("expected missing key in message, got %v", err)
	}
}

func TestParseAnalysisRejectsWrongType(t *testing.T) {
	res := mockResult(t, "x")
	b, _ := json.Marshal(res)
	raw := strings.Replace(string(b), `"peak_volume_hour":"`, `"peak_volume_hour":12,"ignored":"`, 1)

	_, err := ParseAnalysis(raw)
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestParseAnalysisRejectsOutOfRangeIntensity(t *testing.T) {
	res := mockResult(t, "x")
	res.TemporalHeatmap[0].Intensity = 11
	b, _ := json.Marshal(res)

	_, err := ParseAnalysis(string(b))
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestParseAnalysisRejectsGarbage(t *testing.T) {
	for _, raw := range []string{"", "not json", `{"executive_summary":"x"} {}`, `[]`} {
		if _, err := ParseAnalysis(raw); !errors.Is(err, ErrInvalidResponse) {
			t.Fatalf("%q: expected ErrInvalidResponse, got %v", raw, err)
		}
	}
}

func TestParseAnalysisAcceptsFencedJSON(t *testing.T) {
	res := mockResult(t, "x")
	b, _ := json.Marshal(res)
	if _, err := ParseAnalysis("```json\n" + string(b) + "\n```"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseSynthesisImpactLevel(t *testing.T) {
	periods := []Period{
		{DatasetID: "curr", Result: mockResult(t, "a")},
		{DatasetID: "prev", Result: mockResult(t, "b")},
	}
	out, err := MockAnalyzer{}.Synthesize(context.Background(), periods)
	if err != nil {
		t.Fatalf("mock synthesize: %v", err)
	}
	b, _ := json.Marshal(out)
	if _, err := ParseSynthesis(string(b)); err != nil {
		t.Fatalf("expected valid synthesis, got %v", err)
	}

	out.WoWSummaryTable[0].ImpactLevel = "Severe"
	b, _ = json.Marshal(out)
	if _, err := ParseSynthesis(string(b)); !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestSynthesisContext(t *testing.T) {
	var a, b models.AnalysisResult
	a.SummaryMetrics.SLABreachRatePercent = 12.5
	a.FinancialImpact.EstimatedMonthlyLoss = 4000
	b.SummaryMetrics.SLABreachRatePercent = 30
	b.FinancialImpact.EstimatedMonthlyLoss = 9100.25

	got := SynthesisContext([]Period{{DatasetID: "curr", Result: a}, {DatasetID: "prev", Result: b}})
	want := "PERIOD: curr\nSLA Breach: 12.5%\nLoss: $4000\n\nPERIOD: prev\nSLA Breach: 30%\nLoss: $9100.25"
	if got != want {
		t.Fatalf("unexpected context:\n%s", got)
	}
}

func TestSynthesizeNeedsTwoPeriods(t *testing.T) {
	_, err := MockAnalyzer{}.Synthesize(context.Background(), []Period{{DatasetID: "curr"}})
	if !errors.Is(err, ErrTooFewPeriods) {
		t.Fatalf("expected ErrTooFewPeriods, got %v", err)
	}
}

func chatServer(t *testing.T, status int, body string, seen *map[string]any) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if seen != nil {
			b, _ := io.ReadAll(r.Body)
			_ = json.Unmarshal(b, seen)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func completion(content string) string {
	b, _ := json.Marshal(map[string]any{
		"id":      "chatcmpl-1",
		"object":  "chat.completion",
		"model":   "test",
		"choices": []map[string]any{{"index": 0, "message": map[string]any{"role": "assistant", "content": content}, "finish_reason": "stop"}},
	})
	return string(b)
}

func TestOpenAIAnalyzerSuccess(t *testing.T) {
	res := mockResult(t, "payload")
	b, _ := json.Marshal(res)
	var seen map[string]any
	srv := chatServer(t, http.StatusOK, completion(string(b)), &seen)

	a := NewOpenAIAnalyzer(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1", Model: "gpt-4o-mini"})
	got, err := a.Analyze(context.Background(), `[{"ticket_id":"INC-9"}]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ExecutiveSummary != res.ExecutiveSummary {
		t.Fatalf("unexpected result: %+v", got.ExecutiveSummary)
	}

	format, _ := seen["response_format"].(map[string]any)
	if format["type"] != "json_schema" {
		t.Fatalf("expected json_schema response format, got %v", seen["response_format"])
	}
	msgs, _ := seen["messages"].([]any)
	if len(msgs) != 2 || !strings.Contains(msgs[1].(map[string]any)["content"].(string), "INC-9") {
		t.Fatalf("dataset content not forwarded: %v", msgs)
	}
}

func TestOpenAIAnalyzerNonConformingReply(t *testing.T) {
	srv := chatServer(t, http.StatusOK, completion(`{"executive_summary":"only this"}`), nil)
	a := NewOpenAIAnalyzer(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})

	_, err := a.Analyze(context.Background(), "data")
	if !errors.Is(err, ErrInvalidResponse) {
		t.Fatalf("expected ErrInvalidResponse, got %v", err)
	}
}

func TestOpenAIAnalyzerServiceMessage(t *testing.T) {
	srv := chatServer(t, http.StatusInternalServerError, `{"error":{"message":"model overloaded","type":"server_error"}}`, nil)
	a := NewOpenAIAnalyzer(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})

	_, err := a.Analyze(context.Background(), "data")
	var svcErr *ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("expected ServiceError, got %T %v", err, err)
	}
	if svcErr.Error() != "model overloaded" {
		t.Fatalf("expected service message, got %q", svcErr.Error())
	}
}

func TestOpenAIAnalyzerQuota(t *testing.T) {
	srv := chatServer(t, http.StatusTooManyRequests, `{"error":{"message":"quota","type":"rate_limit"}}`, nil)
	a := NewOpenAIAnalyzer(OpenAIConfig{APIKey: "k", BaseURL: srv.URL + "/v1"})

	_, err := a.Synthesize(context.Background(), []Period{{DatasetID: "a"}, {DatasetID: "b"}})
	if !errors.Is(err, ErrQuotaExceeded) {
		t.Fatalf("expected ErrQuotaExceeded, got %v", err)
	}
}

func TestOpenAIAnalyzerEmptyContent(t *testing.T) {
	a := NewOpenAIAnalyzer(OpenAIConfig{APIKey: "k", BaseURL: "http://127.0.0.1:1"})
	if _, err := a.Analyze(context.Background(), "  "); !errors.Is(err, ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}
