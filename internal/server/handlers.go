package server

import (
	"encoding/json"
	"net/http"

	"github.com/jonathan/mapleads/internal/enrich"
	"github.com/jonathan/mapleads/internal/feed"
	"github.com/jonathan/mapleads/internal/pipeline"
	"github.com/jonathan/mapleads/internal/types"
)

// Values returned by /api/enrich when no oracle is configured.
const (
	MissingKeyFeatures = "API Key Config Missing"
	MissingKeyMessage  = "Please configure GEMINI_API_KEY in the server environment to enable AI enrichment."
	MissingKeyContact  = "Admin"
)

// EnrichRequest represents the request body for /api/enrich
type EnrichRequest struct {
	BusinessName string `json:"businessName" validate:"max=500"`
	Category     string `json:"category" validate:"max=500"`
	WebsiteURL   string `json:"websiteUrl" validate:"max=2048"`
	WebsiteText  string `json:"websiteText,omitempty" validate:"max=200000"`
}

// ScrapeRequest represents the request body for /api/scrape/stream
type ScrapeRequest struct {
	Query string `json:"query" validate:"required,max=2048"`
}

// ProgressPayload is the data of a "progress" event.
type ProgressPayload struct {
	ItemsSoFar int        `json:"itemsSoFar"`
	Phase      feed.Phase `json:"phase"`
	Status     string     `json:"status"`
}

// MissingKeyResult is returned in place of an analysis when no oracle is configured.
func MissingKeyResult() types.EnrichmentResult {
	contact := MissingKeyContact
	return types.EnrichmentResult{
		SEOHealth:       0,
		MissingFeatures: MissingKeyFeatures,
		OutreachMessage: MissingKeyMessage,
		ContactPerson:   &contact,
	}
}

// requestAccount names the quota account of a request: the X-Account header,
// then the account query parameter, then the configured default.
// Both values are trusted as sent. Nothing authenticates them, so a caller can
// pick a fresh account and its full daily quota; deployments that expose the
// server beyond trusted clients must set the account upstream.
func (s *Server) requestAccount(r *http.Request) string {
	if a := r.Header.Get("X-Account"); a != "" {
		return a
	}
	if a := r.URL.Query().Get("account"); a != "" {
		return a
	}
	return s.account
}

// handleEnrich analyzes one lead. Enrichment failures are reported inside a 200
// response; only malformed requests and quota denials are errors.
func (s *Server) handleEnrich(w http.ResponseWriter, r *http.Request) {
	var req EnrichRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	if s.enricher == nil {
		s.logger.Error("enrichment requested but no oracle is configured")
		s.jsonResponse(w, http.StatusOK, MissingKeyResult())
		return
	}

	account := s.requestAccount(r)
	if s.gate != nil {
		if _, err := s.gate.CheckAndAdmit(r.Context(), account, 1, s.tier); err != nil {
			s.errorResponse(w, HTTPStatus(err), err.Error())
			return
		}
	}

	res := s.enricher.EnrichInput(r.Context(), enrich.Input{
		BusinessName: req.BusinessName,
		Category:     req.Category,
		WebsiteURL:   req.WebsiteURL,
		WebsiteText:  req.WebsiteText,
	})

	if s.gate != nil {
		if _, err := s.gate.Record(r.Context(), account, 1); err != nil {
			s.logger.Warn("failed to record quota usage", "account", account, "error", err)
		}
	}
	s.jsonResponse(w, http.StatusOK, res)
}

// handleScrapeStream scans a feed, streaming progress, then sends the records.
func (s *Server) handleScrapeStream(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if err := validateRequest(&req); err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	if s.openSource == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "feed scanning is not configured")
		return
	}

	src, release, err := s.openSource(r.Context(), req.Query)
	if err != nil {
		s.logger.Error("failed to open feed", "query", req.Query, "error", err)
		s.errorResponse(w, http.StatusBadGateway, "Failed to open results feed: "+err.Error())
		return
	}
	if release != nil {
		defer release()
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	p := pipeline.New(src, nil, nil, nil, s.logger)
	p.Scanner = feed.NewScanner(src, s.scanOptions, s.logger)

	err = p.Scan(r.Context(), func(ev feed.ProgressEvent) {
		_ = sse.WriteEvent("progress", ProgressPayload{ItemsSoFar: ev.ItemsSoFar, Phase: ev.Phase, Status: ev.Status()})
	})
	if err != nil {
		s.logger.Error("feed scan failed", "query", req.Query, "error", err)
		sse.WriteError(err.Error())
		return
	}

	records, err := p.Extract(r.Context())
	if err != nil {
		s.logger.Error("extraction failed", "query", req.Query, "error", err)
		sse.WriteError(err.Error())
		return
	}

	if err := sse.WriteEvent("records", records); err != nil {
		s.logger.Warn("failed to stream records", "error", err)
		return
	}
	sse.WriteComplete("completed", len(records))
}

// handleQuota returns the quota status of an account.
func (s *Server) handleQuota(w http.ResponseWriter, r *http.Request) {
	if s.gate == nil {
		s.errorResponse(w, http.StatusServiceUnavailable, "quota tracking is not configured")
		return
	}

	status, err := s.gate.Status(r.Context(), s.requestAccount(r))
	if err != nil {
		s.logger.Error("failed to read quota", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to read quota")
		return
	}
	s.jsonResponse(w, http.StatusOK, status)
}
