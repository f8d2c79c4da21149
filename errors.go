package gpumark

import "errors"

// Benchmark errors.
var (
	// ErrNotFinished is returned when the final score is requested before
	// the benchmark has completed all three scenes.
	ErrNotFinished = errors.New("gpumark: benchmark has not finished")

	// ErrAlreadyRunning is returned when Start is called on a benchmark
	// that is already running.
	ErrAlreadyRunning = errors.New("gpumark: benchmark is already running")

	// ErrNoScenes is returned when a runner is created without scenes.
	ErrNoScenes = errors.New("gpumark: no scenes configured")

	// ErrDeviceLost is returned when the GPU device becomes unusable
	// after a run has started.
	ErrDeviceLost = errors.New("gpumark: GPU device lost")
)
