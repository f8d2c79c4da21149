package gpumark

// Telemetry is the per-frame live readout made available to an overlay
// or HUD. It mirrors the values a benchmark display would show; only the
// internally buffered sample lists are authoritative for scoring.
type Telemetry struct {
	// Phase is the current benchmark phase.
	Phase Phase

	// SceneIndex is the active scene (0..2).
	SceneIndex int

	// SceneName is the active scene's display name.
	SceneName string

	// Primitives is the active scene's static primitive-count label
	// (e.g. "1,000,000 particles").
	Primitives string

	// FPS is the instantaneous frames-per-second of the last frame.
	FPS float64

	// FrameTimeMs is the last frame's CPU frame time in milliseconds.
	FrameTimeMs float64

	// SceneMinFPS and SceneMaxFPS track the extremes observed during the
	// active scene. Zero until the first valid sample.
	SceneMinFPS float64
	SceneMaxFPS float64

	// AvgFPS is the mean FPS over the most recent ~1 second of samples.
	AvgFPS float64

	// AvgGPUTimeMs is the smoothed GPU pass time in milliseconds, or -1
	// when GPU timing is unavailable (display as "N/A").
	AvgGPUTimeMs float64

	// SceneProgress is the active scene's elapsed percentage (0..100).
	SceneProgress float64
}

// GPUTimeAvailable reports whether AvgGPUTimeMs holds a real measurement.
func (t Telemetry) GPUTimeAvailable() bool {
	return t.AvgGPUTimeMs >= 0
}
