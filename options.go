package gpumark

import "time"

// DefaultSceneDuration is how long each scene is measured.
const DefaultSceneDuration = 20 * time.Second

// Options configures a benchmark run. Scene weights and workload sizes
// (one million particles, 3000 instances) are fixed constants of this
// version and are deliberately not configurable.
type Options struct {
	// Width and Height are the render target dimensions in pixels.
	Width  int
	Height int

	// SceneDuration is the measured duration of each scene. Exposed for
	// testing; comparable published scores use the default.
	SceneDuration time.Duration

	// ReportPath, when non-empty, is where the runner writes a PNG report
	// (frame-time graph plus per-scene score bars) after a finished run.
	ReportPath string
}

// DefaultOptions returns the options a comparable benchmark run uses:
// the 1920x1080 reference framebuffer and the 20-second scene duration.
func DefaultOptions() Options {
	return Options{
		Width:         referenceWidth,
		Height:        referenceHeight,
		SceneDuration: DefaultSceneDuration,
	}
}

// withDefaults fills unset fields.
func (o Options) withDefaults() Options {
	if o.Width <= 0 {
		o.Width = referenceWidth
	}
	if o.Height <= 0 {
		o.Height = referenceHeight
	}
	if o.SceneDuration <= 0 {
		o.SceneDuration = DefaultSceneDuration
	}
	return o
}
