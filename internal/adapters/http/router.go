package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/corpusjuris/interrogator/internal/core/domain"
	"github.com/corpusjuris/interrogator/internal/core/ports"
	"github.com/corpusjuris/interrogator/internal/observability/metrics"
)

// InterrogationService is everything the API surface needs from the
// interrogation use case.
type InterrogationService interface {
	ports.Interrogator
	ports.SessionSubmitter
	ports.SessionReader
}

type Router struct {
	interrogateUC InterrogationService
	retrieval     ports.RetrievalService
	metrics       *metrics.HTTPServerMetrics
	service       string

	rateLimitRPS   float64
	rateLimitBurst int
	maxConcurrent  int
}

type RouterOptions struct {
	Service        string
	Metrics        *metrics.HTTPServerMetrics
	RateLimitRPS   float64
	RateLimitBurst int
	MaxConcurrent  int
}

func NewRouter(interrogateUC InterrogationService, retrieval ports.RetrievalService, options RouterOptions) *Router {
	service := options.Service
	if service == "" {
		service = "api"
	}
	return &Router{
		interrogateUC:  interrogateUC,
		retrieval:      retrieval,
		metrics:        options.Metrics,
		service:        service,
		rateLimitRPS:   options.RateLimitRPS,
		rateLimitBurst: options.RateLimitBurst,
		maxConcurrent:  options.MaxConcurrent,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/interrogations", rt.createInterrogation)
	mux.HandleFunc("/v1/interrogations/", rt.getInterrogationByID)
	mux.HandleFunc("/v1/retrieval/query", rt.queryRetrieval)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.maxConcurrent > 0 {
		handler = backpressureMiddleware(handler, rt.maxConcurrent, 100*time.Millisecond)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(rt.service, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) createInterrogation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		UserQuery        string `json:"user_query"`
		UserContext      string `json:"user_context"`
		UserInstructions string `json:"user_instructions"`
		TurnBudget       int    `json:"turn_budget"`
		Sync             bool   `json:"sync"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}

	request := domain.InterrogationRequest{
		UserQuery:        req.UserQuery,
		UserContext:      req.UserContext,
		UserInstructions: req.UserInstructions,
		TurnBudget:       req.TurnBudget,
	}

	if req.Sync {
		result, err := rt.interrogateUC.Run(r.Context(), request)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	session, err := rt.interrogateUC.Submit(r.Context(), request)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, session)
}

func (rt *Router) getInterrogationByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/v1/interrogations/")
	if id == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "session id is required"})
		return
	}

	session, err := rt.interrogateUC.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (rt *Router) queryRetrieval(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}

	start := time.Now()
	docs, err := rt.retrieval.Retrieve(r.Context(), req.Query)
	if rt.metrics != nil {
		rt.metrics.RecordRetrieval(rt.service, "/v1/retrieval/query", len(docs), time.Since(start))
	}
	if err != nil {
		writeError(w, err)
		return
	}

	type documentResponse struct {
		Content  string            `json:"content"`
		Metadata map[string]string `json:"metadata,omitempty"`
		Score    float64           `json:"score"`
	}
	out := make([]documentResponse, 0, len(docs))
	for _, rd := range docs {
		out = append(out, documentResponse{
			Content:  rd.Document.Content,
			Metadata: rd.Document.Metadata,
			Score:    rd.Score,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"documents": out})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
}
