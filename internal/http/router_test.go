package http

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"voice-phishing-detector/internal/audio"
	"voice-phishing-detector/internal/models"
	"voice-phishing-detector/internal/observability"
	"voice-phishing-detector/internal/observability/metrics"
	"voice-phishing-detector/internal/service/analysis"
)

// testAnalyzer records its inputs and returns canned results.
type testAnalyzer struct {
	resp      *models.AnalysisResponse
	err       error
	panicWith any

	gotBody     []byte
	gotFilename string
	gotText     string
	audioCalls  int
	textCalls   int
}

func (a *testAnalyzer) AnalyzeAudio(ctx context.Context, r io.Reader, filename string) (*models.AnalysisResponse, error) {
	a.audioCalls++
	a.gotFilename = filename
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	a.gotBody = body
	if a.panicWith != nil {
		panic(a.panicWith)
	}
	return a.resp, a.err
}

func (a *testAnalyzer) AnalyzeText(ctx context.Context, text string) (*models.AnalysisResponse, error) {
	a.textCalls++
	a.gotText = text
	return a.resp, a.err
}

var okResponse = &models.AnalysisResponse{
	RecognizedText: "검찰청입니다",
	RiskScore:      0.87,
	ModelResult:    models.ModelVerdictSuspectedFraud,
	LLMResult:      models.LLMVerdictFraudConfirmed,
}

func newTestRouter(a Analyzer, maxBytes int64) http.Handler {
	return NewRouter(RouterConfig{
		Analyzer:       a,
		MaxUploadBytes: maxBytes,
		Metrics:        metrics.NewMetrics(prometheus.NewRegistry()),
	})
}

func multipartBody(t *testing.T, field, filename string, content []byte, extra map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range extra {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write(content); err != nil {
			t.Fatal(err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}
	return &buf, mw.FormDataContentType()
}

func postAudio(t *testing.T, h http.Handler, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze", body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func postText(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/analyze_text", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var e models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &e); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return e.Error
}

func TestAnalyzeAudio_Success(t *testing.T) {
	a := &testAnalyzer{resp: okResponse}
	h := newTestRouter(a, 0)

	body, ct := multipartBody(t, "audio", "call.m4a", []byte("recording"), map[string]string{"note": "x"})
	rec := postAudio(t, h, body, ct)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "application/json") {
		t.Errorf("unexpected content type %q", ct)
	}
	var got models.AnalysisResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatal(err)
	}
	if got != *okResponse {
		t.Errorf("unexpected body %+v", got)
	}
	if string(a.gotBody) != "recording" || a.gotFilename != "call.m4a" {
		t.Errorf("unexpected upload %q %q", a.gotBody, a.gotFilename)
	}
}

func TestAnalyzeAudio_MissingField(t *testing.T) {
	tests := []struct {
		name string
		body func() (io.Reader, string)
	}{
		{"other field only", func() (io.Reader, string) {
			return multipartBody(t, "file", "a.wav", []byte("x"), nil)
		}},
		{"no parts", func() (io.Reader, string) {
			return multipartBody(t, "", "", nil, map[string]string{"text": "hi"})
		}},
		{"not multipart", func() (io.Reader, string) {
			return strings.NewReader(`{"audio":"x"}`), "application/json"
		}},
		{"no content type", func() (io.Reader, string) {
			return strings.NewReader("raw"), ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &testAnalyzer{resp: okResponse}
			body, ct := tt.body()
			rec := postAudio(t, newTestRouter(a, 0), body, ct)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if msg := decodeError(t, rec); msg != msgAudioRequired {
				t.Errorf("unexpected message %q", msg)
			}
			if a.audioCalls != 0 {
				t.Error("expected analyzer not called")
			}
		})
	}
}

func TestAnalyzeAudio_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"no speech", analysis.ErrNoSpeech, http.StatusBadRequest, msgNoSpeech},
		{"transcode", &audio.TranscodeError{Input: "x", Err: errors.New("exit status 1")}, http.StatusBadRequest, msgTranscodeFailed},
		{"stt failure", &analysis.STTError{Provider: "google", Err: errors.New("Unavailable: dns")}, http.StatusInternalServerError, "speech recognition failed (google): Unavailable: dns"},
		{"other", errors.New("score transcript: boom"), http.StatusInternalServerError, "score transcript: boom"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &testAnalyzer{err: tt.err}
			body, ct := multipartBody(t, "audio", "a.wav", []byte("x"), nil)
			rec := postAudio(t, newTestRouter(a, 0), body, ct)

			if rec.Code != tt.status {
				t.Fatalf("expected %d, got %d", tt.status, rec.Code)
			}
			if msg := decodeError(t, rec); msg != tt.msg {
				t.Errorf("expected message %q, got %q", tt.msg, msg)
			}
		})
	}
}

func TestAnalyzeAudio_TooLarge(t *testing.T) {
	a := &testAnalyzer{resp: okResponse}
	body, ct := multipartBody(t, "audio", "big.wav", bytes.Repeat([]byte{1}, 8192), nil)

	rec := postAudio(t, newTestRouter(a, 1024), body, ct)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != msgTooLarge {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestAnalyzeAudio_Panic(t *testing.T) {
	a := &testAnalyzer{panicWith: "nil model"}
	body, ct := multipartBody(t, "audio", "a.wav", []byte("x"), nil)

	rec := postAudio(t, newTestRouter(a, 0), body, ct)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "nil model" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestAnalyzeText_Success(t *testing.T) {
	a := &testAnalyzer{resp: okResponse}
	rec := postText(t, newTestRouter(a, 0), `{"text":"검찰청입니다"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if a.gotText != "검찰청입니다" {
		t.Errorf("unexpected text %q", a.gotText)
	}
}

func TestAnalyzeText_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"missing", `{}`},
		{"null", `{"text":null}`},
		{"empty", `{"text":""}`},
		{"whitespace only spaces", `{"text":"   "}`},
		{"whitespace only tabs and newlines", `{"text":"\t\n "}`},
		{"wrong type", `{"text":42}`},
		{"malformed", `{"text":`},
		{"empty body", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := &testAnalyzer{resp: okResponse}
			rec := postText(t, newTestRouter(a, 0), tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if msg := decodeError(t, rec); msg != msgTextRequired {
				t.Errorf("unexpected message %q", msg)
			}
			if a.textCalls != 0 {
				t.Error("expected analyzer not called")
			}
		})
	}
}

func TestAnalyzeText_Errors(t *testing.T) {
	a := &testAnalyzer{err: errors.New("embed: connection refused")}
	rec := postText(t, newTestRouter(a, 0), `{"text":"hello"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "embed: connection refused" {
		t.Errorf("unexpected message %q", msg)
	}
}

func TestAnalyzeText_TooLarge(t *testing.T) {
	a := &testAnalyzer{resp: okResponse}
	rec := postText(t, newTestRouter(a, 64), `{"text":"`+strings.Repeat("가", 100)+`"}`)

	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413, got %d", rec.Code)
	}
}

func TestHealthEndpoints(t *testing.T) {
	ready := false
	h := NewRouter(RouterConfig{
		Analyzer: &testAnalyzer{},
		Ready:    func() bool { return ready },
		Metrics:  metrics.NewMetrics(prometheus.NewRegistry()),
	})

	get := func(path string) int {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec.Code
	}

	if code := get("/v1/liveness"); code != http.StatusOK {
		t.Errorf("liveness: expected 200, got %d", code)
	}
	if code := get("/v1/readiness"); code != http.StatusServiceUnavailable {
		t.Errorf("readiness before start: expected 503, got %d", code)
	}
	ready = true
	if code := get("/v1/readiness"); code != http.StatusOK {
		t.Errorf("readiness after start: expected 200, got %d", code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	rec := httptest.NewRecorder()
	newTestRouter(&testAnalyzer{}, 0).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/analyze", nil))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestRequestMetrics_UnknownPathsShareOneSeries(t *testing.T) {
	m := metrics.NewMetrics(prometheus.NewRegistry())
	h := NewRouter(RouterConfig{
		Analyzer: &testAnalyzer{resp: okResponse},
		Metrics:  m,
	})

	for _, path := range []string{"/scan-1", "/scan-2", "/wp-login.php", "/.env", "/analyze/extra"} {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}
	if rec := postText(t, h, `{"text":"hello"}`); rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	if n := testutil.CollectAndCount(m.RequestsTotal); n != 2 {
		t.Errorf("expected 2 request series (route + unmatched), got %d", n)
	}
	if n := testutil.CollectAndCount(m.RequestDuration); n != 2 {
		t.Errorf("expected 2 duration series, got %d", n)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues(observability.UnmatchedRoute, "4xx")); got != 5 {
		t.Errorf("expected 5 unmatched 4xx requests, got %v", got)
	}
	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/analyze_text", "2xx")); got != 1 {
		t.Errorf("expected 1 /analyze_text 2xx request, got %v", got)
	}
}
