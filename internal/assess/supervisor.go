// Package assess runs one assessment per utterance: local extraction, an
// optional remote enrichment, the triage decision, and an optional remote
// explanation. Remote failures never surface to the caller; they switch the
// result to the offline path.
package assess

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/go-core/log"
	"github.com/oklog/ulid/v2"

	"github.com/linnemanlabs/firstline/internal/tools"
	"github.com/linnemanlabs/firstline/internal/triage"
	"github.com/linnemanlabs/firstline/internal/vitals"
	"github.com/linnemanlabs/firstline/internal/vitals/extract"
)

var tracer = otel.Tracer("github.com/linnemanlabs/firstline/internal/assess")

const (
	// DefaultRemoteTimeout bounds each remote call.
	DefaultRemoteTimeout = 8 * time.Second

	notifyTimeout = 15 * time.Second
)

var (
	ErrRemoteUnavailable = errors.New("remote source unavailable")
	ErrMalformedResponse = errors.New("malformed remote response")
	ErrUnsafeContent     = errors.New("unsafe remote content")
)

// Enricher extracts vitals from text with a remote model. A nil field in the
// returned record means the source did not find it.
type Enricher interface {
	Enrich(ctx context.Context, text string, lang extract.Language) (*vitals.Vitals, error)
}

// ExplainRequest carries a finished triage decision to the explainer.
type ExplainRequest struct {
	Priority triage.Priority
	Reasons  []string
	Text     string
	Language extract.Language
}

// Explainer narrates a triage decision. It never changes the decision.
type Explainer interface {
	Explain(ctx context.Context, req *ExplainRequest) (*tools.Explanation, error)
}

// Notifier escalates critical assessments.
type Notifier interface {
	Notify(ctx context.Context, r *Result) error
}

// Result is the outcome of an assessment. ID correlates logs and traces;
// nothing is stored under it.
type Result struct {
	ID             string           `json:"id"`
	Language       extract.Language `json:"language"`
	Vitals         vitals.Vitals    `json:"vitals"`
	Triage         triage.Result    `json:"triage"`
	Explanation    string           `json:"explanation"`
	FirstAidSteps  string           `json:"firstAidSteps"`
	UsedOffline    bool             `json:"usedOffline"`
	EnrichmentUsed bool             `json:"enrichmentUsed"`
	CreatedAt      time.Time        `json:"createdAt"`
	Duration       float64          `json:"durationSeconds"`
}

// Supervisor runs assessments. It holds no per-request state and is safe for
// concurrent use.
type Supervisor struct {
	enricher  Enricher
	explainer Explainer
	extractor *extract.Extractor
	notifier  Notifier
	logger    log.Logger
	hooks     Hooks
	timeout   time.Duration
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLogger sets the logger.
func WithLogger(l log.Logger) Option {
	return func(s *Supervisor) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRemoteTimeout bounds each remote call. Non-positive values are ignored.
func WithRemoteTimeout(d time.Duration) Option {
	return func(s *Supervisor) {
		if d > 0 {
			s.timeout = d
		}
	}
}

// WithHooks sets observability hooks.
func WithHooks(h Hooks) Option {
	return func(s *Supervisor) { s.hooks = h }
}

// WithNotifier escalates CRITICAL results through n.
func WithNotifier(n Notifier) Option {
	return func(s *Supervisor) { s.notifier = n }
}

// WithExtractor replaces the embedded keyword tables.
func WithExtractor(e *extract.Extractor) Option {
	return func(s *Supervisor) {
		if e != nil {
			s.extractor = e
		}
	}
}

// New creates a Supervisor. A nil enricher or explainer keeps every
// assessment on the offline path.
func New(enricher Enricher, explainer Explainer, opts ...Option) *Supervisor {
	s := &Supervisor{
		enricher:  enricher,
		explainer: explainer,
		extractor: extract.Default(),
		logger:    log.Nop(),
		timeout:   DefaultRemoteTimeout,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Assess always returns a complete result. The triage decision is made once,
// on the enriched vitals when enrichment succeeded and on the local vitals
// otherwise.
func (s *Supervisor) Assess(ctx context.Context, text string, lang extract.Language) *Result {
	start := time.Now()
	id := ulid.Make().String()

	ctx, span := tracer.Start(ctx, "assess", trace.WithAttributes(
		attribute.String("firstline.assessment.id", id),
		attribute.String("firstline.language", string(lang)),
	))
	defer span.End()

	L := s.logger.With("assessment_id", id, "language", lang)

	local := s.extractor.Extract(text, lang)
	if err := local.Validate(); err != nil {
		L.Warn(ctx, "local vitals out of range, dropping fields", "fields", vitals.InvalidFields(err))
		local = local.WithoutInvalid()
	}

	v, enrichErr := s.enrich(ctx, local, text, lang)
	if enrichErr != nil && s.enricher != nil {
		L.Warn(ctx, "enrichment failed, using local vitals", "err", enrichErr.Error())
	}

	decision := triage.Decide(v)

	res := &Result{
		ID:             id,
		Language:       lang,
		Vitals:         v,
		Triage:         decision,
		EnrichmentUsed: enrichErr == nil,
		CreatedAt:      start,
	}

	var exp *tools.Explanation
	explainErr := enrichErr
	if enrichErr == nil {
		exp, explainErr = s.explain(ctx, &ExplainRequest{
			Priority: decision.Priority,
			Reasons:  decision.Reasons,
			Text:     text,
			Language: lang,
		})
		if explainErr != nil {
			L.Warn(ctx, "explanation failed, using offline copy", "err", explainErr.Error())
		}
	} else {
		s.hooks.remoteCall(CallExplain, OutcomeSkipped, 0)
	}

	if explainErr != nil {
		res.UsedOffline = true
		res.Explanation = OfflineExplanation
		res.FirstAidSteps = FirstAidSteps(decision.Priority)
	} else {
		res.Explanation = exp.Explanation
		res.FirstAidSteps = exp.FirstAidSteps
	}

	res.Duration = time.Since(start).Seconds()

	span.SetAttributes(
		attribute.String("firstline.priority", string(decision.Priority)),
		attribute.Int("firstline.score", decision.Score),
		attribute.Bool("firstline.red_flags", decision.RedFlagsDetected),
		attribute.Bool("firstline.used_offline", res.UsedOffline),
		attribute.Bool("firstline.enrichment_used", res.EnrichmentUsed),
	)

	L.Info(ctx, "assessment complete",
		"priority", decision.Priority,
		"score", decision.Score,
		"red_flags", decision.RedFlagsDetected,
		"used_offline", res.UsedOffline,
		"duration", res.Duration,
	)

	s.hooks.complete(res)

	if s.notifier != nil && decision.Priority == triage.PriorityCritical {
		cp := *res
		go s.escalate(context.WithoutCancel(ctx), L, &cp)
	}

	return res
}

// enrich merges the remote vitals over local. A merged record that fails
// validation counts as a malformed response.
func (s *Supervisor) enrich(ctx context.Context, local vitals.Vitals, text string, lang extract.Language) (vitals.Vitals, error) {
	if s.enricher == nil {
		s.hooks.remoteCall(CallEnrich, OutcomeSkipped, 0)
		return local, fmt.Errorf("%w: no enricher configured", ErrRemoteUnavailable)
	}

	ctx, span := tracer.Start(ctx, "remote.enrich")
	defer span.End()

	start := time.Now()
	remote, err := bounded(ctx, s.timeout, func(ctx context.Context) (*vitals.Vitals, error) {
		return s.enricher.Enrich(ctx, text, lang)
	})
	merged := local
	switch {
	case err != nil:
	case remote == nil:
		err = fmt.Errorf("%w: no vitals returned", ErrMalformedResponse)
	default:
		merged = vitals.Merge(local, remote)
		if verr := merged.Validate(); verr != nil {
			err = fmt.Errorf("%w: enriched vitals: %w", ErrMalformedResponse, verr)
			merged = local
		}
	}
	s.finishRemote(span, CallEnrich, start, err)
	return merged, err
}

func (s *Supervisor) explain(ctx context.Context, req *ExplainRequest) (*tools.Explanation, error) {
	if s.explainer == nil {
		s.hooks.remoteCall(CallExplain, OutcomeSkipped, 0)
		return nil, fmt.Errorf("%w: no explainer configured", ErrRemoteUnavailable)
	}

	ctx, span := tracer.Start(ctx, "remote.explain", trace.WithAttributes(
		attribute.String("firstline.priority", string(req.Priority)),
	))
	defer span.End()

	start := time.Now()
	exp, err := bounded(ctx, s.timeout, func(ctx context.Context) (*tools.Explanation, error) {
		return s.explainer.Explain(ctx, req)
	})
	if err == nil {
		err = screen(exp)
	}
	s.finishRemote(span, CallExplain, start, err)
	return exp, err
}

func (s *Supervisor) finishRemote(span trace.Span, call string, start time.Time, err error) {
	outcome := outcomeOf(err)
	span.SetAttributes(attribute.String("firstline.outcome", outcome))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, outcome)
	}
	s.hooks.remoteCall(call, outcome, time.Since(start))
}

func (s *Supervisor) escalate(ctx context.Context, L log.Logger, r *Result) {
	ctx, cancel := context.WithTimeout(ctx, notifyTimeout)
	defer cancel()
	if err := s.notifier.Notify(ctx, r); err != nil {
		L.Error(ctx, err, "escalation failed")
		return
	}
	L.Info(ctx, "escalation sent")
}

// bounded runs fn with a deadline and returns when either fn or the deadline
// finishes, so a source that ignores its context cannot stall the caller.
// A panic in fn is returned as an error.
func bounded[T any](ctx context.Context, timeout time.Duration, fn func(context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		v   T
		err error
	}
	ch := make(chan outcome, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				ch <- outcome{err: fmt.Errorf("%w: panic: %v", ErrRemoteUnavailable, p)}
			}
		}()
		v, err := fn(ctx)
		ch <- outcome{v: v, err: err}
	}()

	select {
	case o := <-ch:
		if o.err != nil && ctx.Err() != nil && !errors.Is(o.err, ctx.Err()) {
			o.err = fmt.Errorf("%w: %w", o.err, ctx.Err())
		}
		return o.v, o.err
	case <-ctx.Done():
		var zero T
		return zero, fmt.Errorf("%w: %w", ErrRemoteUnavailable, ctx.Err())
	}
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, context.DeadlineExceeded):
		return OutcomeTimeout
	case errors.Is(err, context.Canceled):
		return OutcomeCanceled
	case errors.Is(err, ErrUnsafeContent):
		return OutcomeUnsafe
	case errors.Is(err, ErrMalformedResponse):
		return OutcomeMalformed
	default:
		return OutcomeError
	}
}
