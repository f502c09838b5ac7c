package rides

import (
	"context"
	"fmt"

	logrus "github.com/sirupsen/logrus"

	"ride_dispatch/internal/apperr"
)

// Stage is a state of the per-request query pipeline. Transitions only move
// forward; any failure lands in StageFailed.
type Stage int

const (
	StageUnauthenticated Stage = iota
	StageAuthorizing
	StageFilterBuilding
	StageFetching
	StageMerging
	StageOrdering
	StagePaginating
	StageProjected
	StageFailed
)

var stageNames = [...]string{
	StageUnauthenticated: "unauthenticated",
	StageAuthorizing:     "authorizing",
	StageFilterBuilding:  "filter_building",
	StageFetching:        "fetching",
	StageMerging:         "merging",
	StageOrdering:        "ordering",
	StagePaginating:      "paginating",
	StageProjected:       "projected",
	StageFailed:          "error",
}

func (s Stage) String() string {
	if s < 0 || int(s) >= len(stageNames) {
		return fmt.Sprintf("stage(%d)", int(s))
	}
	return stageNames[s]
}

func (s Stage) Terminal() bool { return s == StageProjected || s == StageFailed }

// StageError records the stage a request failed in. The wrapped error keeps
// its apperr kind.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return e.Stage.String() + ": " + e.Err.Error() }

func (e *StageError) Unwrap() error { return e.Err }

// pipeline tracks one request through the stages.
type pipeline struct {
	ctx   context.Context
	stage Stage
	log   *logrus.Entry
}

func newPipeline(ctx context.Context, log *logrus.Entry) *pipeline {
	return &pipeline{ctx: ctx, stage: StageUnauthenticated, log: log}
}

// advance moves to the next stage, failing early if the caller went away.
func (p *pipeline) advance(next Stage) error {
	if p.stage.Terminal() {
		return fmt.Errorf("pipeline already finished in %s", p.stage)
	}
	if next <= p.stage {
		return fmt.Errorf("illegal transition %s -> %s", p.stage, next)
	}
	if err := p.ctx.Err(); err != nil {
		return p.fail(apperr.FromContext(err))
	}
	p.log.WithField("stage", next.String()).Debug("query stage")
	p.stage = next
	return nil
}

// fail moves the pipeline into StageFailed and returns the wrapped cause.
func (p *pipeline) fail(err error) error {
	failed := p.stage
	p.stage = StageFailed
	p.log.WithError(err).WithFields(logrus.Fields{
		"stage": failed.String(),
		"kind":  apperr.KindOf(err),
	}).Info("query failed")
	return &StageError{Stage: failed, Err: err}
}
