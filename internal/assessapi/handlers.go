package assessapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/firstline/internal/triage"
	"github.com/linnemanlabs/firstline/internal/vitals"
	"github.com/linnemanlabs/firstline/internal/vitals/extract"
)

type textRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

var errEmptyText = errors.New("text is required")

// decodeText reads a textRequest. A missing language means English.
func decodeText(r *http.Request) (string, extract.Language, error) {
	var req textRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return "", "", errors.New("invalid payload")
	}
	if strings.TrimSpace(req.Text) == "" {
		return "", "", errEmptyText
	}
	if req.Language == "" {
		return req.Text, extract.English, nil
	}
	lang, err := extract.ParseLanguage(req.Language)
	if err != nil {
		return "", "", err
	}
	return req.Text, lang, nil
}

func (a *API) handleAssess(w http.ResponseWriter, r *http.Request) {
	text, lang, err := decodeText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := a.assessor.Assess(r.Context(), text, lang)

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("firstline.assessment.id", result.ID),
		attribute.String("firstline.priority", string(result.Triage.Priority)),
		attribute.Bool("firstline.used_offline", result.UsedOffline),
	)

	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleTriage(w http.ResponseWriter, r *http.Request) {
	var v vitals.Vitals
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}
	if err := v.Validate(); err != nil {
		a.logger.Warn(r.Context(), "rejected vitals", "fields", vitals.InvalidFields(err))
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Error:  err.Error(),
			Fields: vitals.InvalidFields(err),
		})
		return
	}

	result := triage.Decide(v)

	trace.SpanFromContext(r.Context()).SetAttributes(
		attribute.String("firstline.priority", string(result.Priority)),
		attribute.Int("firstline.score", result.Score),
	)

	writeJSON(w, http.StatusOK, result)
}

func (a *API) handleExtract(w http.ResponseWriter, r *http.Request) {
	text, lang, err := decodeText(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, a.extractor.Extract(text, lang))
}
