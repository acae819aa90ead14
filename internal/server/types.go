package server

import (
	"fmt"

	"github.com/MeKo-Tech/epistola/internal/annotate"
	"github.com/MeKo-Tech/epistola/internal/pipeline"
	"github.com/MeKo-Tech/epistola/internal/tagger"
)

// pipelineInterface defines the methods needed by the server from a pipeline.
type pipelineInterface interface {
	Languages() []string
	Identify(text string) (string, map[string]float64, error)
	Tag(text string) tagger.Result
	AnnotateDocument(src []byte) ([]byte, *annotate.DocumentStats, error)
}

// Server holds the HTTP server state and dependencies.
type Server struct {
	pipeline   pipelineInterface
	corsOrigin string
	maxBodyMB  int64
	timeoutSec int
	limiter    *RateLimiter
}

// Config holds server configuration.
type Config struct {
	Host            string
	Port            int
	CORSOrigin      string
	MaxBodyMB       int64
	TimeoutSec      int
	ShutdownTimeout int
	RateLimit       RateLimitConfig
	PipelineConfig  pipeline.Config
}

// HealthResponse is returned by /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// LanguagesResponse is returned by /languages.
type LanguagesResponse struct {
	Languages []string `json:"languages"`
	Count     int      `json:"count"`
}

// TextRequest is the body of /identify and /tag.
type TextRequest struct {
	Text string `json:"text"`
}

// IdentifyResponse is returned by /identify. Perplexities is empty for blank
// text.
type IdentifyResponse struct {
	Language     string             `json:"language"`
	Perplexities map[string]float64 `json:"perplexities,omitempty"`
}

// TagResponse is returned by /tag.
type TagResponse struct {
	Tagged  string         `json:"tagged"`
	Label   string         `json:"label"`
	Matches []tagger.Match `json:"matches"`
}

// AnnotateResult is the websocket result of an annotate request.
type AnnotateResult struct {
	Document string                  `json:"document"`
	Stats    *annotate.DocumentStats `json:"stats"`
}

// LimitResponse is the JSON body of a 429 reply.
type LimitResponse struct {
	Success    bool    `json:"success"`
	Error      string  `json:"error"` // "rate_limit_exceeded" or "quota_exceeded"
	Type       string  `json:"type"`
	Limit      int64   `json:"limit"`
	Used       int64   `json:"used,omitempty"`
	RetryAfter float64 `json:"retry_after,omitempty"`
	Resets     string  `json:"resets,omitempty"`
	Message    string  `json:"message"`
}

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// NewServer builds the pipeline described by config and wraps it in a Server.
func NewServer(config Config) (*Server, error) {
	pl, err := pipeline.NewBuilder().WithConfig(config.PipelineConfig).Build()
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	return NewServerWithPipeline(config, pl), nil
}

// NewServerWithPipeline wraps an already built pipeline.
func NewServerWithPipeline(config Config, pl pipelineInterface) *Server {
	maxBody := config.MaxBodyMB
	if maxBody <= 0 {
		maxBody = 10
	}
	return &Server{
		pipeline:   pl,
		corsOrigin: config.CORSOrigin,
		maxBodyMB:  maxBody,
		timeoutSec: config.TimeoutSec,
		limiter:    NewRateLimiter(config.RateLimit),
	}
}

// Languages lists the language codes the server can identify.
func (s *Server) Languages() []string {
	if s.pipeline == nil {
		return nil
	}
	return s.pipeline.Languages()
}
