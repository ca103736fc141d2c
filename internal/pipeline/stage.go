package pipeline

// Stage identifies a pipeline stage in progress notifications.
type Stage string

const (
	StageExtract   Stage = "extract"
	StageTransform Stage = "transform"
	StageLoad      Stage = "load"
)

// Phase marks entry into or exit from a stage.
type Phase string

const (
	PhaseActive Phase = "active"
	PhaseDone   Phase = "done"
)

// ProgressFunc receives stage transitions synchronously. It is called at most
// six times per run: active and done for each stage. A stage that fails only
// reports active.
type ProgressFunc func(stage Stage, phase Phase)
