package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/epistola/internal/langid"
	"github.com/MeKo-Tech/epistola/internal/tagger"
	"github.com/MeKo-Tech/epistola/internal/version"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.route("health", s.healthHandler))
	mux.HandleFunc("/languages", s.route("languages", s.languagesHandler))
	mux.HandleFunc("/identify", s.route("identify", s.limit("identify", s.identifyHandler)))
	mux.HandleFunc("/tag", s.route("tag", s.limit("tag", s.tagHandler)))
	mux.HandleFunc("/annotate", s.route("annotate", s.limit("annotate", s.withTimeout(s.annotateHandler))))
	mux.HandleFunc("/ws", s.webSocketHandler)
	mux.Handle("/metrics", promhttp.Handler())
}

// withTimeout bounds a handler by the configured request timeout.
func (s *Server) withTimeout(next http.HandlerFunc) http.HandlerFunc {
	if s.timeoutSec <= 0 {
		return next
	}
	h := http.TimeoutHandler(next, time.Duration(s.timeoutSec)*time.Second, "request timed out")
	return h.ServeHTTP
}

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// languagesHandler lists the language codes the identifier knows.
func (s *Server) languagesHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.pipeline == nil {
		s.writeErrorResponse(w, "Pipeline not initialized", http.StatusServiceUnavailable)
		return
	}
	langs := s.pipeline.Languages()
	writeJSON(w, http.StatusOK, LanguagesResponse{Languages: langs, Count: len(langs)})
}

// identifyHandler returns the language of the posted text.
func (s *Server) identifyHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readTextRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	resp, err := s.identify(req.Text)
	if err != nil {
		requestsTotal.WithLabelValues("identify", "error").Inc()
		s.writeErrorResponse(w, fmt.Sprintf("Identification failed: %v", err), statusFor(err))
		return
	}
	requestsTotal.WithLabelValues("identify", "success").Inc()
	processingDuration.WithLabelValues("identify").Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) identify(text string) (*IdentifyResponse, error) {
	if strings.TrimSpace(text) == "" {
		identifiedTotal.WithLabelValues(langid.Unknown).Inc()
		return &IdentifyResponse{Language: langid.Unknown}, nil
	}
	code, scores, err := s.pipeline.Identify(text)
	if err != nil {
		return nil, err
	}
	label := strings.ToLower(code)
	identifiedTotal.WithLabelValues(label).Inc()
	return &IdentifyResponse{Language: label, Perplexities: scores}, nil
}

// tagHandler tags the person and place names in the posted text.
func (s *Server) tagHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := s.readTextRequest(w, r)
	if !ok {
		return
	}

	start := time.Now()
	res := s.tag(req.Text)
	requestsTotal.WithLabelValues("tag", "success").Inc()
	processingDuration.WithLabelValues("tag").Observe(time.Since(start).Seconds())

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) tag(text string) TagResponse {
	res := s.pipeline.Tag(text)
	for _, m := range res.Matches {
		entitiesTagged.WithLabelValues(m.Category.String(), m.Method).Inc()
	}
	matches := res.Matches
	if matches == nil {
		matches = []tagger.Match{}
	}
	return TagResponse{Tagged: res.Tagged, Label: res.Label, Matches: matches}
}

// annotateHandler annotates a posted TEI document and returns it as XML.
func (s *Server) annotateHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	if s.pipeline == nil {
		s.writeErrorResponse(w, "Pipeline not initialized", http.StatusServiceUnavailable)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyMB*1024*1024)
	src, err := io.ReadAll(r.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, "Document too large", http.StatusRequestEntityTooLarge)
			return
		}
		s.writeErrorResponse(w, "Failed to read document", http.StatusBadRequest)
		return
	}
	if len(src) == 0 {
		s.writeErrorResponse(w, "No document provided", http.StatusBadRequest)
		return
	}
	documentSizeBytes.Observe(float64(len(src)))

	start := time.Now()
	out, stats, err := s.pipeline.AnnotateDocument(src)
	if err != nil {
		requestsTotal.WithLabelValues("annotate", "error").Inc()
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			status = http.StatusBadRequest
		}
		s.writeErrorResponse(w, fmt.Sprintf("Annotation failed: %v", err), status)
		return
	}
	requestsTotal.WithLabelValues("annotate", "success").Inc()
	processingDuration.WithLabelValues("annotate").Observe(time.Since(start).Seconds())
	for lang, n := range stats.Languages {
		identifiedTotal.WithLabelValues(lang).Add(float64(n))
	}

	w.Header().Set("Content-Type", "application/xml; charset=utf-8")
	w.Header().Set("X-Epistola-Paragraphs", strconv.Itoa(stats.Paragraphs))
	w.Header().Set("X-Epistola-Sentences", strconv.Itoa(stats.Sentences))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		slog.Error("Failed to write annotated document", "error", err)
	}
}

// readTextRequest decodes a POSTed TextRequest, answering the client itself
// when that fails.
func (s *Server) readTextRequest(w http.ResponseWriter, r *http.Request) (*TextRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	if s.pipeline == nil {
		s.writeErrorResponse(w, "Pipeline not initialized", http.StatusServiceUnavailable)
		return nil, false
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyMB*1024*1024)
	var req TextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeErrorResponse(w, "Request too large", http.StatusRequestEntityTooLarge)
			return nil, false
		}
		s.writeErrorResponse(w, "Invalid JSON body", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

// statusFor maps pipeline errors to HTTP status codes.
func statusFor(err error) int {
	if errors.Is(err, langid.ErrInsufficientModels) {
		return http.StatusServiceUnavailable
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}
