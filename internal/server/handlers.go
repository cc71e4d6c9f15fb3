// ABOUTME: HTTP handlers for upload, query, reset, listing, and health
// ABOUTME: Decodes requests into core pipeline calls and shapes the JSON responses
package server

import (
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/docqa/internal/core"
	"github.com/harper/docqa/internal/models"
)

// UploadResult is one file's entry in the /upload response
type UploadResult struct {
	Filename      string             `json:"filename"`
	ExtractedText string             `json:"extracted_text"`
	ChunkData     []models.ChunkData `json:"chunk_data"`
}

// UploadTextRequest is the /upload-text body
type UploadTextRequest struct {
	Text     string          `json:"text"`
	Metadata json.RawMessage `json:"metadata,omitempty"`
	ID       string          `json:"id,omitempty"`
}

// UploadTextResponse is the /upload-text result
type UploadTextResponse struct {
	ID            string             `json:"id"`
	ExtractedText string             `json:"extracted_text"`
	ChunkData     []models.ChunkData `json:"chunk_data"`
}

// QueryRequest is the /query body
type QueryRequest struct {
	Query        string `json:"query"`
	ResponseMode string `json:"response_mode,omitempty"`
	K            *int   `json:"k,omitempty"`
}

// QueryResponse is the /query result
type QueryResponse struct {
	Response           string      `json:"response"`
	ResponseMode       string      `json:"response_mode"`
	ContextUsed        int         `json:"context_used"`
	QueryEmbedding     []float64   `json:"query_embedding"`
	RetrievedChunk     []string    `json:"retrieved_chunk"`
	RetrievedEmbedding [][]float64 `json:"retrieved_embedding"`
	Scores             []float64   `json:"scores"`
	ProcessingTime     float64     `json:"processing_time"`
}

// DocumentEntry is one row of /db-contents
type DocumentEntry struct {
	ID       string        `json:"id"`
	Metadata DocumentStats `json:"metadata"`
}

// DocumentStats nests the stored fields the way existing clients read them
type DocumentStats struct {
	RawText    string         `json:"raw_text"`
	Metadata   map[string]any `json:"metadata"`
	CreatedAt  time.Time      `json:"created_at"`
	ChunkCount int            `json:"chunk_count"`
}

type messageResponse struct {
	Message string `json:"message"`
	Removed *int   `json:"removed,omitempty"`
}

// handleUpload handles POST /upload with one or more files, or a text field alone
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	if err := r.ParseMultipartForm(s.config.MaxUploadBytes); err != nil {
		writeError(w, bodyError("multipart form", err))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	metadata, err := parseMetadata([]byte(r.FormValue("metadata")))
	if err != nil {
		writeError(w, err)
		return
	}

	files := append(r.MultipartForm.File["files"], r.MultipartForm.File["file"]...)
	text := strings.TrimSpace(r.FormValue("text"))

	if len(files) == 0 {
		if text == "" {
			writeError(w, models.NewError(models.KindInvalidInput, "upload", "no file part"))
			return
		}
		if _, err := s.service.Ingest(r.Context(), core.IngestRequest{Text: text, Metadata: metadata}); err != nil {
			writeError(w, err)
			return
		}
		respondJSON(w, http.StatusOK, messageResponse{Message: "Text + metadata stored successfully"})
		return
	}

	results := make([]UploadResult, 0, len(files))
	for _, fh := range files {
		if fh.Filename == "" {
			continue
		}
		data, err := readPart(fh)
		if err != nil {
			writeError(w, err)
			return
		}

		fileMeta := make(map[string]any, len(metadata)+1)
		for k, v := range metadata {
			fileMeta[k] = v
		}
		if text != "" {
			fileMeta["description"] = text
		}

		name := filepath.Base(fh.Filename)
		res, err := s.service.Ingest(r.Context(), core.IngestRequest{Filename: name, Data: data, Metadata: fileMeta})
		if err != nil {
			writeError(w, err)
			return
		}
		results = append(results, UploadResult{
			Filename:      name,
			ExtractedText: res.ExtractedText,
			ChunkData:     res.ChunkData,
		})
	}
	respondJSON(w, http.StatusOK, results)
}

func readPart(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, models.WrapError(models.KindInvalidInput, "upload", err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, models.WrapError(models.KindInvalidInput, "upload", err)
	}
	return data, nil
}

// handleUploadText handles POST /upload-text
func (s *Server) handleUploadText(w http.ResponseWriter, r *http.Request) {
	var req UploadTextRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, models.NewError(models.KindEmptyContent, "upload text", "no text provided"))
		return
	}
	metadata, err := parseMetadata(req.Metadata)
	if err != nil {
		writeError(w, err)
		return
	}

	res, err := s.service.Ingest(r.Context(), core.IngestRequest{
		Text:     strings.TrimSpace(req.Text),
		Metadata: metadata,
		ID:       req.ID,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, UploadTextResponse{
		ID:            res.DocumentID,
		ExtractedText: res.ExtractedText,
		ChunkData:     res.ChunkData,
	})
}

// handleQuery handles POST /query
func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req QueryRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	k := 0
	if req.K != nil {
		if *req.K < 1 {
			writeError(w, models.NewError(models.KindInvalidInput, "query", "k must be at least 1, got %d", *req.K))
			return
		}
		k = *req.K
	}

	resp, err := s.service.Query(r.Context(), core.QueryRequest{
		Query: strings.TrimSpace(req.Query),
		K:     k,
		Mode:  req.ResponseMode,
	})
	if err != nil {
		writeError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, QueryResponse{
		Response:           resp.Answer,
		ResponseMode:       string(resp.Mode),
		ContextUsed:        resp.ContextUsed,
		QueryEmbedding:     resp.QueryEmbedding,
		RetrievedChunk:     resp.RetrievedChunks,
		RetrievedEmbedding: resp.RetrievedEmbeddings,
		Scores:             resp.Scores,
		ProcessingTime:     resp.Elapsed.Seconds(),
	})
}

// handleReset handles POST /reset-db
func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	n, err := s.service.Reset(r.Context())
	if err != nil {
		writeAdminError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, messageResponse{
		Message: "Database reset: all documents deleted.",
		Removed: &n,
	})
}

// handleDBContents handles GET /db-contents
func (s *Server) handleDBContents(w http.ResponseWriter, r *http.Request) {
	docs, err := s.service.Documents(r.Context())
	if err != nil {
		writeAdminError(w, err)
		return
	}

	entries := make([]DocumentEntry, 0, len(docs))
	for _, d := range docs {
		meta := d.Metadata
		if meta == nil {
			meta = map[string]any{}
		}
		entries = append(entries, DocumentEntry{
			ID: d.ID,
			Metadata: DocumentStats{
				RawText:    d.RawText,
				Metadata:   meta,
				CreatedAt:  d.CreatedAt,
				ChunkCount: d.NumChunks(),
			},
		})
	}
	respondJSON(w, http.StatusOK, map[string]any{"documents": entries})
}

// handleHealth handles GET /healthz
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dest any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.config.MaxUploadBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dest); err != nil {
		return bodyError("json body", err)
	}
	return nil
}

// bodyError classifies request body failures
func bodyError(op string, err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return models.NewError(models.KindInvalidInput, op, "request body exceeds %d bytes", tooLarge.Limit)
	}
	return models.WrapError(models.KindInvalidInput, op, err)
}

// parseMetadata accepts a JSON object, or any other non-empty text as a description
func parseMetadata(raw []byte) (map[string]any, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}

	var obj map[string]any
	if strings.HasPrefix(trimmed, "{") {
		if err := json.Unmarshal([]byte(trimmed), &obj); err != nil {
			return nil, models.NewError(models.KindInvalidInput, "metadata", "metadata is not valid JSON: %v", err)
		}
		return obj, nil
	}

	var s string
	if strings.HasPrefix(trimmed, `"`) {
		if err := json.Unmarshal([]byte(trimmed), &s); err != nil {
			return nil, models.NewError(models.KindInvalidInput, "metadata", "metadata is not valid JSON: %v", err)
		}
	} else {
		s = trimmed
	}
	if s = strings.TrimSpace(s); s == "" {
		return nil, nil
	}
	return map[string]any{"description": s}, nil
}
