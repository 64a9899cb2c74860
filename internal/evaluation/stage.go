package evaluation

import (
	"fmt"

	"go.uber.org/zap"
)

// Stage is the macro state of a single run.
type Stage int

const (
	StageInit Stage = iota
	StageScattered
	StageGathered
	StageFinalized
)

func (s Stage) String() string {
	switch s {
	case StageInit:
		return "init"
	case StageScattered:
		return "scattered"
	case StageGathered:
		return "gathered"
	case StageFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("stage(%d)", int(s))
	}
}

// stageTracker only allows moving one stage forward at a time.
type stageTracker struct {
	current Stage
	logger  *zap.Logger
}

func newStageTracker(logger *zap.Logger) *stageTracker {
	return &stageTracker{current: StageInit, logger: logger}
}

func (t *stageTracker) advance(to Stage) error {
	if t.current == StageFinalized || to != t.current+1 {
		return fmt.Errorf("invalid stage transition: %s -> %s", t.current, to)
	}
	t.logger.Debug("evaluation stage", zap.Stringer("from", t.current), zap.Stringer("to", to))
	t.current = to
	return nil
}
