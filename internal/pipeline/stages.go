package pipeline

import "fmt"

// Stage names the steps of per-dataset processing. The sequence is strictly
// linear; any stage can branch to failure but never backward or sideways.
type Stage string

const (
	StageStart        Stage = "start"
	StageLayout       Stage = "layout_resolved"
	StageBasics       Stage = "basics_checked"
	StageStats        Stage = "stats_compiled"
	StageParticipants Stage = "participants_processed"
	StageEvents       Stage = "events_processed"
	StageDone         Stage = "done"
)

// stageOrder is the only legal forward path.
var stageOrder = []Stage{
	StageStart,
	StageLayout,
	StageBasics,
	StageStats,
	StageParticipants,
	StageEvents,
	StageDone,
}

// advance validates a transition from the current stage to the next one.
// The caller supplies the expected current stage so sequencing bugs
// surface as errors instead of silently skipped stages.
func advance(current, next Stage) (Stage, error) {
	for i, s := range stageOrder[:len(stageOrder)-1] {
		if s == current {
			if stageOrder[i+1] == next {
				return next, nil
			}
			return current, fmt.Errorf("invalid stage transition %s -> %s", current, next)
		}
	}
	return current, fmt.Errorf("no transition out of stage %s", current)
}
