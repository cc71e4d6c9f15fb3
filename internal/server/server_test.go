// ABOUTME: Tests for the HTTP API using httptest against a memory-backed service
// ABOUTME: Covers response shapes, status mapping, headers, and shutdown
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/llm"
	"github.com/harper/docqa/internal/models"
	"github.com/harper/docqa/internal/storage"
	"github.com/harper/docqa/internal/storage/memory"
)

type echoGenerator struct{}

func (echoGenerator) Name() string { return "echo" }

func (echoGenerator) Generate(_ context.Context, req llm.GenerateRequest) (string, error) {
	return fmt.Sprintf("%d sources for %s", len(req.Context), req.Query), nil
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	emb, err := llm.NewHashEmbedder(64)
	if err != nil {
		t.Fatalf("NewHashEmbedder() error = %v", err)
	}
	svc, err := core.NewService(storage.New(memory.New(), 64, nil), emb, echoGenerator{}, core.Options{
		Chunking:  core.ChunkConfig{Size: 200, Overlap: 20, Strategy: core.StrategyWord},
		DefaultK:  3,
		MaxK:      10,
		BatchSize: 8,
		Workers:   2,
	})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	t.Cleanup(func() { _ = svc.Close(context.Background()) })

	cfg := DefaultConfig()
	cfg.Quiet = true
	return New(svc, cfg)
}

func do(t *testing.T, s *Server, method, path, contentType string, body []byte) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func postJSON(t *testing.T, s *Server, path string, v any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return do(t, s, http.MethodPost, path, "application/json", body)
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

type part struct {
	field, filename, content string
}

func multipartBody(t *testing.T, parts []part, fields map[string]string) ([]byte, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := mw.CreateFormFile(p.field, p.filename)
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		_, _ = fw.Write([]byte(p.content))
	}
	for k, v := range fields {
		_ = mw.WriteField(k, v)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("multipart close: %v", err)
	}
	return buf.Bytes(), mw.FormDataContentType()
}

func TestUploadTextAndList(t *testing.T) {
	s := newTestServer(t)

	rec := postJSON(t, s, "/upload-text", map[string]any{
		"text":     "The sky is blue.",
		"metadata": map[string]any{"topic": "weather"},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	up := decode[UploadTextResponse](t, rec)
	if up.ExtractedText != "The sky is blue." || len(up.ChunkData) != 1 || len(up.ChunkData[0].Embedding) != 64 {
		t.Errorf("upload response = %+v", up)
	}

	rec = do(t, s, http.MethodGet, "/db-contents", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("db-contents status = %d", rec.Code)
	}
	list := decode[struct {
		Documents []DocumentEntry `json:"documents"`
	}](t, rec)
	if len(list.Documents) != 1 {
		t.Fatalf("documents = %+v", list.Documents)
	}
	d := list.Documents[0]
	if d.ID != up.ID || d.Metadata.RawText != "The sky is blue." || d.Metadata.ChunkCount != 1 {
		t.Errorf("entry = %+v", d)
	}
	if d.Metadata.Metadata["topic"] != "weather" {
		t.Errorf("metadata = %v", d.Metadata.Metadata)
	}
}

func TestUploadFiles(t *testing.T) {
	s := newTestServer(t)
	body, ct := multipartBody(t, []part{
		{"files", "sky.txt", "The sky is blue."},
		{"files", "notes.md", "# Stocks\nStocks rose today."},
	}, map[string]string{"metadata": `{"batch": 1}`})

	rec := do(t, s, http.MethodPost, "/upload", ct, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	results := decode[[]UploadResult](t, rec)
	if len(results) != 2 || results[0].Filename != "sky.txt" || results[1].Filename != "notes.md" {
		t.Fatalf("results = %+v", results)
	}
	if results[1].ExtractedText != "# Stocks\nStocks rose today." {
		t.Errorf("extracted = %q", results[1].ExtractedText)
	}
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t)

	unsupported, ct := multipartBody(t, []part{{"file", "photo.png", "\x89PNG"}}, nil)
	textOnly, textCT := multipartBody(t, nil, map[string]string{"text": "Grass is green."})
	empty, emptyCT := multipartBody(t, nil, nil)

	tests := []struct {
		name       string
		body       []byte
		ct         string
		wantStatus int
		wantKind   models.Kind
	}{
		{"unsupported", unsupported, ct, http.StatusUnsupportedMediaType, models.KindUnsupportedFormat},
		{"nothing", empty, emptyCT, http.StatusBadRequest, models.KindInvalidInput},
		{"not multipart", []byte("{}"), "application/json", http.StatusBadRequest, models.KindInvalidInput},
		{"text only", textOnly, textCT, http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/upload", tt.ct, tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantKind == "" {
				if msg := decode[messageResponse](t, rec); msg.Message == "" {
					t.Error("missing message")
				}
				return
			}
			body := decode[errorBody](t, rec)
			if body.Kind != tt.wantKind || body.Detail == "" {
				t.Errorf("error body = %+v", body)
			}
		})
	}
}

func TestUploadTextErrors(t *testing.T) {
	s := newTestServer(t)
	if rec := postJSON(t, s, "/upload-text", map[string]any{"text": "first", "id": "doc-1"}); rec.Code != http.StatusOK {
		t.Fatalf("seed status = %d", rec.Code)
	}

	tests := []struct {
		name       string
		body       []byte
		wantStatus int
		wantKind   models.Kind
	}{
		{"duplicate id", []byte(`{"text":"second","id":"doc-1"}`), http.StatusConflict, models.KindDuplicateIdentity},
		{"blank text", []byte(`{"text":"   "}`), http.StatusUnprocessableEntity, models.KindEmptyContent},
		{"bad json", []byte(`{"text":`), http.StatusBadRequest, models.KindInvalidInput},
		{"bad metadata", []byte(`{"text":"x","metadata":"{oops"}`), http.StatusOK, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/upload-text", "application/json", tt.body)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantKind != "" {
				if body := decode[errorBody](t, rec); body.Kind != tt.wantKind {
					t.Errorf("kind = %s, want %s", body.Kind, tt.wantKind)
				}
			}
		})
	}
}

func TestQuery(t *testing.T) {
	s := newTestServer(t)
	postJSON(t, s, "/upload-text", map[string]any{"text": "The sky is blue."})
	postJSON(t, s, "/upload-text", map[string]any{"text": "Stocks rose today."})

	rec := postJSON(t, s, "/query", map[string]any{"query": "What color is the sky?", "k": 1})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if v, err := strconv.ParseFloat(rec.Header().Get(ProcessTimeHeader), 64); err != nil || v < 0 {
		t.Errorf("%s = %q", ProcessTimeHeader, rec.Header().Get(ProcessTimeHeader))
	}

	resp := decode[QueryResponse](t, rec)
	if len(resp.RetrievedChunk) != 1 || resp.RetrievedChunk[0] != "The sky is blue." {
		t.Errorf("retrieved = %q", resp.RetrievedChunk)
	}
	if resp.ContextUsed != 1 || resp.ResponseMode != "db_gemini" {
		t.Errorf("response = %+v", resp)
	}
	if len(resp.QueryEmbedding) != 10 || len(resp.RetrievedEmbedding[0]) != 10 {
		t.Errorf("preview lengths = %d/%d, want 10", len(resp.QueryEmbedding), len(resp.RetrievedEmbedding[0]))
	}
	if resp.ProcessingTime < 0 {
		t.Errorf("processing_time = %v", resp.ProcessingTime)
	}
}

func TestQuery_EmptyStore(t *testing.T) {
	s := newTestServer(t)
	rec := postJSON(t, s, "/query", map[string]any{"query": "anything"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if resp := decode[QueryResponse](t, rec); resp.ContextUsed != 0 || len(resp.RetrievedChunk) != 0 {
		t.Errorf("response = %+v", resp)
	}
}

func TestQueryErrors(t *testing.T) {
	s := newTestServer(t)
	tests := []struct {
		name     string
		body     string
		wantKind models.Kind
	}{
		{"unknown mode", `{"query":"sky","response_mode":"haiku"}`, models.KindInvalidMode},
		{"missing query", `{"response_mode":"db_only"}`, models.KindInvalidInput},
		{"zero k", `{"query":"sky","k":0}`, models.KindInvalidInput},
		{"k not a number", `{"query":"sky","k":"three"}`, models.KindInvalidInput},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/query", "application/json", []byte(tt.body))
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
			}
			if body := decode[errorBody](t, rec); body.Kind != tt.wantKind {
				t.Errorf("kind = %s, want %s", body.Kind, tt.wantKind)
			}
		})
	}
}

func TestResetTwice(t *testing.T) {
	s := newTestServer(t)
	postJSON(t, s, "/upload-text", map[string]any{"text": "one"})
	postJSON(t, s, "/upload-text", map[string]any{"text": "two"})

	for _, want := range []int{2, 0} {
		rec := do(t, s, http.MethodPost, "/reset-db", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		msg := decode[messageResponse](t, rec)
		if msg.Removed == nil || *msg.Removed != want {
			t.Errorf("removed = %v, want %d", msg.Removed, want)
		}
	}
}

type brokenService struct{}

func (brokenService) Ingest(context.Context, core.IngestRequest) (*core.IngestResult, error) {
	return nil, models.NewError(models.KindStoreUnavailable, "insert", "disk gone")
}

func (brokenService) Query(context.Context, core.QueryRequest) (*core.QueryResponse, error) {
	return nil, models.NewError(models.KindTimeout, "generate", "exceeded 1m0s")
}

func (brokenService) Documents(context.Context) ([]models.Document, error) {
	return nil, models.NewError(models.KindStoreUnavailable, "list", "disk gone")
}

func (brokenService) Reset(context.Context) (int, error) {
	return 0, models.NewError(models.KindStoreUnavailable, "reset", "disk gone")
}

func TestAdminErrorsShape(t *testing.T) {
	s := New(brokenService{}, &Config{Quiet: true, MaxUploadBytes: 1 << 20})

	for _, tc := range []struct{ method, path string }{
		{http.MethodPost, "/reset-db"},
		{http.MethodGet, "/db-contents"},
	} {
		rec := do(t, s, tc.method, tc.path, "", nil)
		if rec.Code != http.StatusServiceUnavailable {
			t.Errorf("%s status = %d, want 503", tc.path, rec.Code)
		}
		body := decode[adminErrorBody](t, rec)
		if body.Error != "disk gone" || body.Kind != models.KindStoreUnavailable {
			t.Errorf("%s body = %+v", tc.path, body)
		}
	}

	rec := postJSON(t, s, "/query", map[string]any{"query": "sky"})
	if rec.Code != http.StatusGatewayTimeout {
		t.Errorf("query status = %d, want 504", rec.Code)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[models.Kind]int{
		models.KindInvalidInput:      400,
		models.KindInvalidMode:       400,
		models.KindDuplicateIdentity: 409,
		models.KindUnsupportedFormat: 415,
		models.KindEmptyContent:      422,
		models.KindCanceled:          499,
		models.KindDimensionMismatch: 500,
		models.KindInternal:          500,
		models.KindEmbeddingFailure:  502,
		models.KindGenerationFailure: 502,
		models.KindStoreUnavailable:  503,
		models.KindTimeout:           504,
	}
	for kind, want := range tests {
		if got := StatusFor(kind); got != want {
			t.Errorf("StatusFor(%s) = %d, want %d", kind, got, want)
		}
	}
}

func TestParseMetadata(t *testing.T) {
	tests := []struct {
		in      string
		want    map[string]any
		wantErr bool
	}{
		{"", nil, false},
		{"null", nil, false},
		{`{"a": "b", "n": 2}`, map[string]any{"a": "b", "n": float64(2)}, false},
		{`"quarterly report"`, map[string]any{"description": "quarterly report"}, false},
		{"plain words", map[string]any{"description": "plain words"}, false},
		{`{"a":`, nil, true},
	}
	for _, tt := range tests {
		got, err := parseMetadata([]byte(tt.in))
		if (err != nil) != tt.wantErr {
			t.Errorf("parseMetadata(%q) error = %v", tt.in, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parseMetadata(%q) = %v, want %v", tt.in, got, tt.want)
			continue
		}
		for k, v := range tt.want {
			if got[k] != v {
				t.Errorf("parseMetadata(%q)[%s] = %v, want %v", tt.in, k, got[k], v)
			}
		}
	}
}

func TestHealthAndCORS(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "ok") {
		t.Errorf("healthz = %d %s", rec.Code, rec.Body.String())
	}

	rec = do(t, s, http.MethodOptions, "/query", "", nil)
	if rec.Code != http.StatusNoContent || rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", rec.Code, rec.Header())
	}

	rec = do(t, s, http.MethodGet, "/query", "", nil)
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("GET /query status = %d, want 405", rec.Code)
	}
}

func TestServeShutsDown(t *testing.T) {
	s := newTestServer(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	_ = resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
