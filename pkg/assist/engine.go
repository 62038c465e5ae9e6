// Package assist runs the help-desk turn: triage, then a grounded answer, a
// request for more information or a ticket.
package assist

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"

	"github.com/zen-systems/erpassist/pkg/config"
	"github.com/zen-systems/erpassist/pkg/docstore"
	"github.com/zen-systems/erpassist/pkg/triage"
)

const tracerName = "github.com/zen-systems/erpassist/pkg/assist"

// Classifier produces the triage decision for a question.
type Classifier interface {
	Classify(ctx context.Context, question string) (triage.Decision, error)
}

// Retriever returns passages above the relevance threshold.
type Retriever interface {
	Retrieve(ctx context.Context, question string) ([]docstore.Passage, error)
}

// Generator answers a question from passages.
type Generator interface {
	Answer(ctx context.Context, question string, passages []docstore.Passage) (string, error)
}

// ImageLocator resolves images for a document page.
type ImageLocator interface {
	Related(document string, page int) ([]string, error)
}

// Observer receives step and turn outcomes.
type Observer interface {
	ObserveStep(step string, elapsed time.Duration, err error)
	ObserveTurn(action string, grounded bool)
}

// Options tunes an Engine. Zero values select defaults.
type Options struct {
	Sentinel     string
	MaxCitations int
	Logger       *zap.Logger
	Observer     Observer
}

// Engine sequences the steps of a turn. It holds no per-turn state and is
// safe for concurrent use when its collaborators are.
type Engine struct {
	classifier   Classifier
	retriever    Retriever
	generator    Generator
	images       ImageLocator
	sentinel     string
	maxCitations int
	log          *zap.Logger
	observer     Observer
}

// NewEngine wires the collaborators of a turn.
func NewEngine(c Classifier, r Retriever, g Generator, img ImageLocator, opts Options) *Engine {
	e := &Engine{
		classifier:   c,
		retriever:    r,
		generator:    g,
		images:       img,
		sentinel:     opts.Sentinel,
		maxCitations: opts.MaxCitations,
		log:          opts.Logger,
		observer:     opts.Observer,
	}
	if e.sentinel == "" {
		e.sentinel = config.DefaultSentinel
	}
	if e.maxCitations <= 0 {
		e.maxCitations = MaxCitations
	}
	if e.log == nil {
		e.log = zap.NewNop()
	}
	if e.observer == nil {
		e.observer = nopObserver{}
	}
	return e
}

// Run processes one question and returns the final turn state. The question
// is kept as given; blank input is rejected.
func (e *Engine) Run(ctx context.Context, question string) (TurnState, error) {
	if strings.TrimSpace(question) == "" {
		return TurnState{}, newError(ErrorInvalidInput, "question is required", nil)
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "assist.turn")
	defer span.End()

	state := TurnState{
		ID:        uuid.NewString(),
		Question:  question,
		Citations: []Citation{},
		Images:    []string{},
	}
	log := e.log.With(zap.String("turn_id", state.ID))

	current := stepTriage
	for current != stepDone {
		start := time.Now()
		update, next, err := e.runStep(ctx, current, state)
		elapsed := time.Since(start)
		e.observer.ObserveStep(current.String(), elapsed, err)
		if err != nil {
			log.Error("step failed", zap.String("step", current.String()), zap.Duration("elapsed", elapsed), zap.Error(err))
			span.RecordError(err)
			span.SetStatus(codes.Error, current.String()+" failed")
			return state, err
		}
		log.Debug("step finished", zap.String("step", current.String()), zap.String("next", next.String()), zap.Duration("elapsed", elapsed))
		state = state.apply(update)
		current = next
	}

	span.SetAttributes(
		attribute.String("assist.action", state.Action.String()),
		attribute.Bool("assist.grounded", state.Grounded),
		attribute.Int("assist.citations", len(state.Citations)),
	)
	e.observer.ObserveTurn(state.Action.String(), state.Grounded)
	log.Info("turn finished",
		zap.String("action", state.Action.String()),
		zap.Bool("grounded", state.Grounded),
		zap.Int("citations", len(state.Citations)),
		zap.Int("images", len(state.Images)),
	)
	return state, nil
}

func (e *Engine) runStep(ctx context.Context, s step, state TurnState) (Update, step, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "assist."+s.String())
	defer span.End()

	switch s {
	case stepTriage:
		return e.triage(ctx, state)
	case stepAutoResolve:
		return e.autoResolve(ctx, state)
	case stepAskInfo:
		return e.askInfo(state)
	case stepOpenTicket:
		return e.openTicket(state)
	case stepDone:
		return Update{}, stepDone, nil
	}
	return Update{}, stepDone, newError(ErrorInternal, "unknown step", fmt.Errorf("%s", s))
}

func (e *Engine) triage(ctx context.Context, state TurnState) (Update, step, error) {
	decision, err := e.classifier.Classify(ctx, state.Question)
	if err != nil {
		if errors.Is(err, triage.ErrInvalidDecision) {
			return Update{}, stepDone, newError(ErrorClassification, "classifier output could not be parsed", err)
		}
		return Update{}, stepDone, newError(ErrorUpstream, "classification call failed", err)
	}

	update := Update{Triage: &decision}
	switch decision.Category {
	case triage.AutoResolve:
		return update, stepAutoResolve, nil
	case triage.AskInfo:
		return update, stepAskInfo, nil
	case triage.OpenTicket:
		return update, stepOpenTicket, nil
	}
	return Update{}, stepDone, newError(ErrorClassification, "unknown triage category", fmt.Errorf("%s", decision.Category))
}

func (e *Engine) notGrounded() (Update, step, error) {
	return Update{Answer: ptr(e.sentinel), Grounded: ptr(false)}, stepOpenTicket, nil
}

func (e *Engine) autoResolve(ctx context.Context, state TurnState) (Update, step, error) {
	passages, err := e.retriever.Retrieve(ctx, state.Question)
	if err != nil {
		return Update{}, stepDone, newError(ErrorUpstream, "retrieval failed", err)
	}
	if len(passages) == 0 {
		e.log.Debug("no passages above threshold", zap.String("question", state.Question))
		return e.notGrounded()
	}

	answer, err := e.generator.Answer(ctx, state.Question, passages)
	if err != nil {
		return Update{}, stepDone, newError(ErrorUpstream, "generation failed", err)
	}
	if IsSentinel(answer, e.sentinel) {
		return e.notGrounded()
	}

	return Update{
		Answer:    ptr(answer),
		Citations: FormatCitations(state.Question, passages, e.maxCitations),
		Images:    e.relatedImages(passages),
		Grounded:  ptr(true),
		Action:    ptr(ActionAutoResolve),
	}, stepDone, nil
}

// relatedImages collects images for every distinct cited page, in order and
// without duplicates. Lookup failures are logged and skipped.
func (e *Engine) relatedImages(passages []docstore.Passage) []string {
	out := []string{}
	if e.images == nil {
		return out
	}
	seen := make(map[string]bool)
	for _, cp := range uniquePages(passages) {
		urls, err := e.images.Related(cp.source, cp.page)
		if err != nil {
			e.log.Warn("image lookup failed", zap.String("document", cp.source), zap.Int("page", cp.page), zap.Error(err))
			continue
		}
		for _, u := range urls {
			if !seen[u] {
				seen[u] = true
				out = append(out, u)
			}
		}
	}
	return out
}

func (e *Engine) askInfo(state TurnState) (Update, step, error) {
	var missing []string
	if state.Triage != nil {
		missing = state.Triage.MissingFields
	}
	return Update{
		Answer: ptr(AskInfoMessage(missing)),
		Action: ptr(ActionAskInfo),
	}, stepDone, nil
}

func (e *Engine) openTicket(state TurnState) (Update, step, error) {
	urgency := triage.Medium
	if state.Triage != nil {
		urgency = state.Triage.Urgency
	}
	return Update{
		Answer:    ptr(TicketMessage(urgency, state.Question)),
		Citations: []Citation{},
		Images:    []string{},
		Action:    ptr(ActionOpenTicket),
	}, stepDone, nil
}

type nopObserver struct{}

func (nopObserver) ObserveStep(string, time.Duration, error) {}

func (nopObserver) ObserveTurn(string, bool) {}
