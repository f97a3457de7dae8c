package pipeline

import (
	"context"
	"fmt"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"complaintsync/internal/complaint"
	apperrors "complaintsync/internal/errors"
)

// Stage names one step of the traversal.
type Stage string

const (
	StageNavigate  Stage = "navigate"
	StageList      Stage = "list"
	StageExtract   Stage = "extract"
	StageInterpret Stage = "interpret"
	StageFilter    Stage = "filter"
	StageDedup     Stage = "dedup"
	StagePersist   Stage = "persist"
	StageClose     Stage = "close"
)

// Outcome is how a complaint left the stage sequence.
type Outcome int

const (
	// OutcomeContinue moves the complaint to the next stage.
	OutcomeContinue Outcome = iota
	OutcomeAppended
	OutcomeFiltered
	OutcomeDuplicate
	OutcomeFailed
	OutcomeWriteFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeContinue:
		return "continue"
	case OutcomeAppended:
		return "appended"
	case OutcomeFiltered:
		return "filtered"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeFailed:
		return "failed"
	case OutcomeWriteFailed:
		return "write_failed"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// StageResult is what a stage hands back to the orchestrator.
type StageResult struct {
	Stage   Stage
	Outcome Outcome
	Record  complaint.Record
	Err     error

	// CloseErr is set when the compensating close failed afterwards.
	CloseErr error
}

// item carries one complaint through the stages.
type item struct {
	outletID string
	index    int
	stage    Stage
	raw      string
	record   complaint.Record
}

type stageFunc func(ctx context.Context, it *item) StageResult

func next(s Stage) StageResult {
	return StageResult{Stage: s, Outcome: OutcomeContinue}
}

func (o *Orchestrator) complaintStages() []stageFunc {
	return []stageFunc{o.extract, o.interpret, o.filter, o.dedup, o.persist}
}

func (o *Orchestrator) extract(ctx context.Context, it *item) StageResult {
	it.stage = StageExtract
	if err := o.nav.OpenComplaint(ctx, it.index); err != nil {
		return StageResult{Stage: StageExtract, Outcome: OutcomeFailed,
			Err: apperrors.NewComplaintError(it.outletID, it.index, "open detail", err)}
	}
	raw, err := o.nav.ReadComplaint(ctx)
	if err != nil {
		return StageResult{Stage: StageExtract, Outcome: OutcomeFailed,
			Err: apperrors.NewComplaintError(it.outletID, it.index, "read detail", err)}
	}
	it.raw = raw
	return next(StageExtract)
}

func (o *Orchestrator) interpret(ctx context.Context, it *item) StageResult {
	it.stage = StageInterpret
	rec, err := o.interp.Interpret(ctx, it.raw, it.outletID)
	if err != nil {
		return StageResult{Stage: StageInterpret, Outcome: OutcomeFailed, Err: err}
	}
	it.record = rec
	return next(StageInterpret)
}

func (o *Orchestrator) filter(_ context.Context, it *item) StageResult {
	it.stage = StageFilter
	if !it.record.Actionable() {
		return StageResult{Stage: StageFilter, Outcome: OutcomeFiltered, Record: it.record}
	}
	return next(StageFilter)
}

func (o *Orchestrator) dedup(_ context.Context, it *item) StageResult {
	it.stage = StageDedup
	if !o.seen.IsNew(it.record) {
		return StageResult{Stage: StageDedup, Outcome: OutcomeDuplicate, Record: it.record}
	}
	return next(StageDedup)
}

// persist appends the row and only then marks the record seen, so a failed
// write stays eligible on the next run.
func (o *Orchestrator) persist(ctx context.Context, it *item) StageResult {
	it.stage = StagePersist
	if err := o.store.Append(ctx, it.record); err != nil {
		if !apperrors.IsWrite(err) {
			err = apperrors.NewWriteError(it.record.ComplaintID, err)
		}
		return StageResult{Stage: StagePersist, Outcome: OutcomeWriteFailed, Record: it.record, Err: err}
	}
	o.seen.MarkSeen(it.record)
	return StageResult{Stage: StagePersist, Outcome: OutcomeAppended, Record: it.record}
}

// processComplaint runs the stages for one complaint index. The close step
// runs afterwards no matter how the stages ended, panics included.
func (o *Orchestrator) processComplaint(ctx context.Context, outletID string, index int) (res StageResult) {
	it := &item{outletID: outletID, index: index, stage: StageExtract}
	log := o.log.With(zap.String("outlet", outletID), zap.Int("index", index))

	defer func() {
		if r := recover(); r != nil {
			res = StageResult{
				Stage:   it.stage,
				Outcome: OutcomeFailed,
				Err:     apperrors.NewComplaintError(outletID, index, fmt.Sprintf("panic: %v", r), nil),
			}
		}
		if err := o.closeComplaint(ctx); err != nil {
			log.Warn("close detail failed", zap.Error(err))
			res.CloseErr = err
		}
	}()

	for _, run := range o.complaintStages() {
		res = run(ctx, it)
		if res.Outcome != OutcomeContinue {
			return res
		}
	}
	return res
}

func (o *Orchestrator) closeComplaint(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = eris.Errorf("panic: %v", r)
		}
	}()
	return o.nav.CloseComplaint(ctx)
}
