// Package assessapi exposes assessments over HTTP.
package assessapi

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/linnemanlabs/go-core/log"
	"github.com/linnemanlabs/go-core/xerrors"

	"github.com/linnemanlabs/firstline/internal/assess"
	"github.com/linnemanlabs/firstline/internal/vitals/extract"
)

// Assessor defines the business operation assessapi needs.
type Assessor interface {
	Assess(ctx context.Context, text string, lang extract.Language) *assess.Result
}

// API holds dependencies for HTTP handlers.
type API struct {
	logger    log.Logger
	assessor  Assessor
	extractor *extract.Extractor
}

// New creates a new API handler. A nil extractor uses the embedded keyword
// tables.
func New(logger log.Logger, assessor Assessor, extractor *extract.Extractor) *API {
	if logger == nil {
		logger = log.Nop()
	}
	if assessor == nil {
		panic(xerrors.New("assessor is required"))
	}
	if extractor == nil {
		extractor = extract.Default()
	}
	return &API{
		logger:    logger,
		assessor:  assessor,
		extractor: extractor,
	}
}

// RegisterRoutes attaches API endpoints to the router.
func (a *API) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/assess", a.handleAssess)
		r.Post("/triage", a.handleTriage)
		r.Post("/extract", a.handleExtract)
	})
}

type errorResponse struct {
	Error  string   `json:"error"`
	Fields []string `json:"fields,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
