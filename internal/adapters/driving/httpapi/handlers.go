package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/custodia-labs/kbquery/internal/core/domain"
	"github.com/custodia-labs/kbquery/internal/logger"
)

type queryRequest struct {
	Question string `json:"question"`
	TopK     int    `json:"top_k"`
}

type sourceJSON struct {
	ID         string  `json:"id"`
	Title      string  `json:"title,omitempty"`
	URL        string  `json:"url"`
	Region     string  `json:"region"`
	Date       string  `json:"date"`
	Text       string  `json:"text,omitempty"`
	Confidence float64 `json:"confidence"`
}

type queryResponse struct {
	Answer  *sourceJSON  `json:"answer"`
	Sources []sourceJSON `json:"sources"`
}

type reindexRequest struct {
	SourcePath string `json:"source_path"`
}

type runJSON struct {
	ID         string `json:"id"`
	SourcePath string `json:"source_path"`
	Status     string `json:"status"`
	Accepted   int    `json:"accepted"`
	Rejected   int    `json:"rejected"`
	Rows       int    `json:"rows"`
	Dimension  int    `json:"dimension"`
	ProviderID string `json:"provider_id"`
	Error      string `json:"error,omitempty"`
	StartedAt  string `json:"started_at"`
	FinishedAt string `json:"finished_at,omitempty"`
}

type reindexResponse struct {
	Status         string  `json:"status"`
	ProcessedCount int     `json:"processed_count"`
	Run            runJSON `json:"run"`
}

type healthResponse struct {
	Status          string   `json:"status"`
	IndexPresent    bool     `json:"index_present"`
	MetadataPresent bool     `json:"metadata_present"`
	Ready           bool     `json:"ready"`
	Rows            int      `json:"rows"`
	Dimension       int      `json:"dimension"`
	ProviderID      string   `json:"provider_id"`
	LastReindex     *runJSON `json:"last_reindex"`
}

type ingestRequest struct {
	ManifestPath string `json:"manifest_path"`
	OutputPath   string `json:"output_path"`
}

type ingestResponse struct {
	Status  string `json:"status"`
	Sources int    `json:"sources"`
	Records int    `json:"records"`
	Output  string `json:"output"`
}

type errorBody struct {
	Error errorJSON `json:"error"`
}

type errorJSON struct {
	Kind    domain.ErrorKind `json:"kind"`
	Message string           `json:"message"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	var req queryRequest
	if !decode(w, r, &req) {
		return
	}

	result, err := s.query.Query(r.Context(), req.Question, domain.QueryOptions{TopK: req.TopK})
	if err != nil {
		writeError(w, err)
		return
	}

	resp := queryResponse{Sources: make([]sourceJSON, 0, len(result.Sources))}
	for _, hit := range result.Sources {
		resp.Sources = append(resp.Sources, toSourceJSON(hit))
	}
	if len(resp.Sources) > 0 {
		best := resp.Sources[0]
		resp.Answer = &best
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleReindex(w http.ResponseWriter, r *http.Request) {
	var req reindexRequest
	if !decode(w, r, &req) {
		return
	}

	run, err := s.query.Reindex(r.Context(), req.SourcePath)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, reindexResponse{
		Status:         "ok",
		ProcessedCount: run.Rows,
		Run:            toRunJSON(*run),
	})
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, fmt.Errorf("%w: limit must be a non-negative integer", domain.ErrInvalidInput))
			return
		}
		limit = n
	}

	runs, err := s.query.Runs(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	out := make([]runJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunJSON(run))
	}
	writeJSON(w, http.StatusOK, map[string][]runJSON{"runs": out})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	h, err := s.query.Health(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	resp := healthResponse{
		Status:          h.Status,
		IndexPresent:    h.IndexPresent,
		MetadataPresent: h.MetadataPresent,
		Ready:           h.Ready,
		Rows:            h.Rows,
		Dimension:       h.Dimension,
		ProviderID:      h.ProviderID,
	}
	if h.LastReindex != nil {
		run := toRunJSON(*h.LastReindex)
		resp.LastReindex = &run
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleIngest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if !decode(w, r, &req) {
		return
	}
	if req.ManifestPath == "" || req.OutputPath == "" {
		writeError(w, fmt.Errorf("%w: manifest_path and output_path are required", domain.ErrInvalidInput))
		return
	}

	summary, err := s.ingest.Chunk(r.Context(), req.ManifestPath, req.OutputPath)
	if err != nil {
		writeError(w, err)
		return
	}

	status := "ok"
	if summary.Chunks == 0 {
		status = "no-content"
	}
	writeJSON(w, http.StatusOK, ingestResponse{
		Status:  status,
		Sources: summary.Sources,
		Records: summary.Chunks,
		Output:  summary.OutputPath,
	})
}

func toSourceJSON(hit domain.SearchHit) sourceJSON {
	rec := hit.Record
	date := ""
	if !rec.DateFetched.IsZero() {
		date = rec.DateFetched.Format(domain.DateLayout)
	}
	return sourceJSON{
		ID:         rec.ID,
		Title:      rec.Title,
		URL:        rec.SourceID,
		Region:     rec.Region,
		Date:       date,
		Text:       rec.Text,
		Confidence: hit.Score,
	}
}

func toRunJSON(run domain.ReindexRun) runJSON {
	out := runJSON{
		ID:         run.ID,
		SourcePath: run.SourcePath,
		Status:     string(run.Status),
		Accepted:   run.Accepted,
		Rejected:   run.Rejected,
		Rows:       run.Rows,
		Dimension:  run.Dimension,
		ProviderID: run.ProviderID,
		Error:      run.Error,
		StartedAt:  run.StartedAt.UTC().Format(time.RFC3339),
	}
	if !run.FinishedAt.IsZero() {
		out.FinishedAt = run.FinishedAt.UTC().Format(time.RFC3339)
	}
	return out
}

// decode reads a JSON body. An empty body decodes to the zero value.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err))
		return false
	}
	return true
}

// StatusFor maps an error to its HTTP status.
func StatusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindInvalidInput:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindIndexUnavailable:
		return http.StatusServiceUnavailable
	case domain.KindProviderUnavailable:
		return http.StatusBadGateway
	case domain.KindReindexInProgress:
		return http.StatusConflict
	case domain.KindNoValidRecords:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		logger.Error("request failed: %v", err)
	}
	writeJSON(w, status, errorBody{Error: errorJSON{Kind: domain.KindOf(err), Message: err.Error()}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("encoding response: %v", err)
	}
}
