// Package pipeline runs one harvesting pass over the configured outlets.
//
// The orchestrator is a small state machine. Each outlet goes through
// Navigate and List; each complaint index goes through Extract, Interpret,
// Filter, Dedup and Persist, followed by the compensating close. A stage
// that does not return OutcomeContinue ends the complaint.
//
// Failure handling has two scopes:
//   - Outlet: a failed Navigate or List skips the outlet, and so does a
//     close that reports the outlet filter lost (*errors.OutletError)
//   - Complaint: any failure in the complaint stages skips that complaint
//
// Only a failure to read the store's existing rows aborts the run.
//
// Everything is sequential. One browser tab is shared across the run, and
// the close step after every complaint is what keeps one complaint's state
// from leaking into the next.
package pipeline

import (
	"context"
	"time"

	"go.uber.org/zap"

	"complaintsync/internal/complaint"
	"complaintsync/internal/dedup"
	apperrors "complaintsync/internal/errors"
)

// Navigator drives the portal UI. CloseComplaint returns an
// *errors.OutletError when the list no longer shows the selected outlet.
type Navigator interface {
	SelectOutlet(ctx context.Context, outletID string) error
	ComplaintCount(ctx context.Context) (int, error)
	OpenComplaint(ctx context.Context, index int) error
	ReadComplaint(ctx context.Context) (string, error)
	CloseComplaint(ctx context.Context) error
}

// Interpreter turns raw detail text into a record.
type Interpreter interface {
	Interpret(ctx context.Context, rawText, outletID string) (complaint.Record, error)
}

// Store is the persisted record collection.
type Store interface {
	Existing(ctx context.Context) ([]complaint.Record, error)
	Append(ctx context.Context, r complaint.Record) error
}

// Orchestrator wires the navigator, interpreter and store together.
type Orchestrator struct {
	nav    Navigator
	interp Interpreter
	store  Store
	seen   *dedup.SeenSet
	log    *zap.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets the logger. Defaults to zap.L().
func WithLogger(log *zap.Logger) Option {
	return func(o *Orchestrator) {
		if log != nil {
			o.log = log
		}
	}
}

// WithSeenSet uses an existing set instead of a fresh one. Preload still
// runs against it.
func WithSeenSet(s *dedup.SeenSet) Option {
	return func(o *Orchestrator) {
		if s != nil {
			o.seen = s
		}
	}
}

// New creates an Orchestrator.
func New(nav Navigator, interp Interpreter, store Store, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		nav:    nav,
		interp: interp,
		store:  store,
		seen:   dedup.New(),
		log:    zap.L(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Seen returns the set of fingerprints known to be persisted.
func (o *Orchestrator) Seen() *dedup.SeenSet {
	return o.seen
}

// Run preloads the seen-set and processes every outlet in order.
//
// The returned error is non-nil only when the store could not be read
// (*errors.StoreError) or ctx was cancelled between complaints. In the
// latter case the partial summary is returned too.
func (o *Orchestrator) Run(ctx context.Context, outlets []string) (*Summary, error) {
	start := time.Now()

	existing, err := o.store.Existing(ctx)
	if err != nil {
		return nil, apperrors.NewStoreError("read existing rows", err)
	}
	summary := &Summary{Outlets: len(outlets)}
	summary.Preloaded = o.seen.Preload(existing)
	o.log.Info("seen set preloaded",
		zap.Int("rows", len(existing)),
		zap.Int("fingerprints", summary.Preloaded),
	)

	for _, outletID := range outlets {
		if err := ctx.Err(); err != nil {
			summary.Duration = time.Since(start)
			return summary, err
		}
		o.runOutlet(ctx, outletID, summary)
	}

	summary.Duration = time.Since(start)
	o.log.Info("run finished",
		zap.Int("outlets", summary.OutletsProcessed),
		zap.Int("outlets_failed", summary.OutletsFailed),
		zap.Int("complaints", summary.ComplaintsSeen),
		zap.Int("appended", len(summary.Appended)),
		zap.Int("duplicates", summary.Duplicates),
		zap.Int("filtered", summary.Filtered),
		zap.Int("failed", summary.ComplaintFailures+summary.InterpretFailures),
		zap.Int("write_failed", summary.WriteFailures),
		zap.Duration("duration", summary.Duration),
	)
	return summary, ctx.Err()
}

func (o *Orchestrator) runOutlet(ctx context.Context, outletID string, summary *Summary) {
	log := o.log.With(zap.String("outlet", outletID))
	log.Info("processing outlet")

	if err := o.nav.SelectOutlet(ctx, outletID); err != nil {
		o.outletFailed(log, summary, outletID, StageNavigate, apperrors.NewOutletError(outletID, "select outlet", err))
		return
	}
	count, err := o.nav.ComplaintCount(ctx)
	if err != nil {
		o.outletFailed(log, summary, outletID, StageList, apperrors.NewOutletError(outletID, "list complaints", err))
		return
	}
	summary.OutletsProcessed++
	log.Info("complaints listed", zap.Int("count", count))

	for i := 0; i < count; i++ {
		if ctx.Err() != nil {
			return
		}
		res := o.processComplaint(ctx, outletID, i)
		o.report(log.With(zap.Int("index", i)), res)
		summary.add(outletID, i, res)

		if apperrors.IsOutlet(res.CloseErr) {
			// The remaining entries would be recorded under the wrong outlet.
			summary.OutletsProcessed--
			o.outletFailed(log, summary, outletID, StageClose, res.CloseErr)
			return
		}
	}
}

func (o *Orchestrator) outletFailed(log *zap.Logger, summary *Summary, outletID string, stage Stage, err error) {
	log.Error("outlet skipped", zap.String("stage", string(stage)), zap.Error(err))
	summary.OutletsFailed++
	summary.Failures = append(summary.Failures, Failure{
		OutletID: outletID,
		Index:    -1,
		Stage:    stage,
		Err:      err.Error(),
	})
}

func (o *Orchestrator) report(log *zap.Logger, res StageResult) {
	r := res.Record
	switch res.Outcome {
	case OutcomeAppended:
		log.Info("complaint appended",
			zap.String("complaint_id", r.ComplaintID),
			zap.String("reason", r.Reason),
		)
	case OutcomeDuplicate:
		log.Info("skipping duplicate complaint",
			zap.String("complaint_id", r.ComplaintID),
			zap.String("fingerprint", complaint.Fingerprint(r)),
		)
	case OutcomeFiltered:
		log.Info("skipping complaint, not open",
			zap.String("complaint_id", r.ComplaintID),
			zap.String("status", r.Status),
		)
	case OutcomeWriteFailed:
		log.Error("append failed, complaint left unseen",
			zap.String("complaint_id", r.ComplaintID),
			zap.Error(res.Err),
		)
	case OutcomeFailed:
		log.Warn("complaint skipped",
			zap.String("stage", string(res.Stage)),
			zap.Error(res.Err),
		)
	}
}
