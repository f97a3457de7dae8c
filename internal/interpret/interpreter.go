// Package interpret turns the rendered text of a complaint detail page into
// a complaint.Record using a text-understanding model.
//
// The model client is injected through the Model interface so tests and the
// orchestrator never depend on a particular provider. Two providers ship with
// the package: Gemini over REST and Anthropic through the official SDK.
package interpret

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"complaintsync/internal/complaint"
	apperrors "complaintsync/internal/errors"
)

// Prompt is one request to a model.
type Prompt struct {
	System      string
	User        string
	Temperature float64
}

// Model generates a completion for a prompt.
type Model interface {
	Generate(ctx context.Context, p Prompt) (string, error)
}

// Interpreter extracts structured records from raw complaint text.
type Interpreter struct {
	model   Model
	limiter *rate.Limiter
	timeout time.Duration
	log     *zap.Logger
}

// Option configures an Interpreter.
type Option func(*Interpreter)

// WithRateLimit caps model calls at rpm requests per minute. Zero or
// negative disables pacing.
func WithRateLimit(rpm int) Option {
	return func(i *Interpreter) {
		if rpm <= 0 {
			i.limiter = nil
			return
		}
		i.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1)
	}
}

// WithTimeout bounds each model call.
func WithTimeout(d time.Duration) Option {
	return func(i *Interpreter) { i.timeout = d }
}

// WithLogger sets the logger. Defaults to zap.L().
func WithLogger(l *zap.Logger) Option {
	return func(i *Interpreter) { i.log = l }
}

// New creates an Interpreter backed by model.
func New(model Model, opts ...Option) *Interpreter {
	i := &Interpreter{
		model:   model,
		timeout: 60 * time.Second,
		log:     zap.L(),
	}
	for _, o := range opts {
		o(i)
	}
	return i
}

// Interpret asks the model to extract a record from rawText and attaches
// outletID to it. Failures are returned as *errors.InterpretError and are
// never retried.
func (i *Interpreter) Interpret(ctx context.Context, rawText, outletID string) (complaint.Record, error) {
	if strings.TrimSpace(rawText) == "" {
		return complaint.Record{}, apperrors.NewInterpretError("empty complaint text", nil)
	}

	if i.limiter != nil {
		if err := i.limiter.Wait(ctx); err != nil {
			return complaint.Record{}, apperrors.NewInterpretError("rate limiter", err)
		}
	}

	callCtx := ctx
	if i.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := i.model.Generate(callCtx, BuildPrompt(rawText))
	if err != nil {
		return complaint.Record{}, apperrors.NewInterpretError("model call failed", err)
	}
	i.log.Debug("model replied",
		zap.String("outlet", outletID),
		zap.Int("reply_bytes", len(reply)),
		zap.Duration("took", time.Since(start)),
	)

	if strings.TrimSpace(reply) == "" {
		return complaint.Record{}, apperrors.NewInterpretError("empty reply", nil)
	}

	rec, err := DecodeRecord(StripFences(reply))
	if err != nil {
		i.log.Debug("undecodable reply", zap.String("outlet", outletID), zap.String("reply", reply))
		return complaint.Record{}, apperrors.NewInterpretError("decode reply", err)
	}
	rec.OutletID = outletID

	return rec, nil
}
