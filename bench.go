package gpumark

import (
	"log/slog"
	"math"
	"time"

	"github.com/samber/lo"
)

// SceneCount is the fixed number of benchmark scenes.
const SceneCount = 3

// sceneWeights are the fixed weights applied to the three scene scores
// when computing the final score: ray march, particle compute, geometry
// stress. Weight is front-loaded on the most universally GPU-bound test.
var sceneWeights = [SceneCount]float64{0.40, 0.35, 0.25}

// Reference framebuffer used to normalize scores across resolutions.
const (
	referenceWidth  = 1920
	referenceHeight = 1080
)

// smoothingWindow is the number of most recent samples used for the live
// average FPS / GPU time readouts (~1 second at 60 fps).
const smoothingWindow = 60

// gpuTimeUnavailable is the sentinel reported when no GPU timing samples
// exist (timestamp queries unsupported, or the first readback has not
// landed yet).
const gpuTimeUnavailable = -1.0

// Phase is the benchmark lifecycle phase.
type Phase int

const (
	// PhaseReady means the benchmark has not started (or was reset).
	PhaseReady Phase = iota

	// PhaseRunning means a scene is actively being measured.
	PhaseRunning

	// PhaseFinished means all three scenes completed and the final score
	// is available. Terminal, except via Reset.
	PhaseFinished

	// PhaseFailed means the device was lost mid-run. Terminal, except via
	// Reset. Distinct from PhaseFinished: no score is produced.
	PhaseFailed
)

// String returns the phase name.
func (p Phase) String() string {
	switch p {
	case PhaseReady:
		return "Ready"
	case PhaseRunning:
		return "Running"
	case PhaseFinished:
		return "Finished"
	case PhaseFailed:
		return "Failed"
	default:
		return "Unknown"
	}
}

// SceneStats accumulates per-frame samples for one scene's entire active
// duration. Once the orchestrator advances past a scene, its stats are
// frozen and only read.
type SceneStats struct {
	// FrameTimes holds per-frame CPU frame times in milliseconds.
	FrameTimes []float64

	// FPS holds per-frame instantaneous frames-per-second values.
	FPS []float64

	// GPUTimes holds asynchronously read GPU pass times in milliseconds.
	// GPU timing lags the frame that produced it, and samples may be
	// dropped under load, so this list is usually shorter than FPS.
	GPUTimes []float64
}

// sceneInfo is the static descriptive metadata for one scene, used only
// for the telemetry surface.
type sceneInfo struct {
	name       string
	primitives string
}

// Benchmark is the timing-driven state machine and statistics engine.
// It is the only component permitted to decide when a scene starts and
// ends. It performs no I/O and never blocks; it is driven once per
// rendered frame by the runner.
//
// Benchmark is not safe for concurrent use. The render loop is the single
// writer.
type Benchmark struct {
	sceneDuration time.Duration

	// Render target dimensions, used for the resolution factor.
	width  int
	height int

	phase      Phase
	sceneIndex int

	totalStart time.Time
	sceneStart time.Time

	stats  [SceneCount]SceneStats
	scores [SceneCount]float64
	final  int

	// Live per-scene trackers, reset at each scene transition.
	sceneMinFPS float64
	sceneMaxFPS float64

	// Most recent frame sample, for telemetry.
	lastFrameMs float64
	lastFPS     float64

	info [SceneCount]sceneInfo

	failure error
}

// NewBenchmark creates a benchmark in the Ready phase.
func NewBenchmark(opts Options) *Benchmark {
	b := &Benchmark{
		sceneDuration: opts.SceneDuration,
		width:         opts.Width,
		height:        opts.Height,
	}
	b.resetTrackers()
	return b
}

// SetSceneInfo records the name and primitive-count label reported in
// telemetry for scene i. Out-of-range indices are ignored.
func (b *Benchmark) SetSceneInfo(i int, name, primitives string) {
	if i < 0 || i >= SceneCount {
		return
	}
	b.info[i] = sceneInfo{name: name, primitives: primitives}
}

// SetRenderSize updates the framebuffer dimensions used for the
// resolution factor. Called from the resize hook.
func (b *Benchmark) SetRenderSize(width, height int) {
	b.width = width
	b.height = height
}

// Phase returns the current lifecycle phase.
func (b *Benchmark) Phase() Phase { return b.phase }

// SceneIndex returns the active scene index. Meaningful only while
// running; after finishing it remains at the last scene.
func (b *Benchmark) SceneIndex() int { return b.sceneIndex }

// Start resets all per-run state and transitions Ready -> Running(0).
// Starting over an already-running benchmark returns ErrAlreadyRunning.
func (b *Benchmark) Start(now time.Time) error {
	if b.phase == PhaseRunning {
		return ErrAlreadyRunning
	}
	b.phase = PhaseRunning
	b.sceneIndex = 0
	b.totalStart = now
	b.sceneStart = now
	b.stats = [SceneCount]SceneStats{}
	b.scores = [SceneCount]float64{}
	b.final = 0
	b.failure = nil
	b.lastFrameMs = 0
	b.lastFPS = 0
	b.resetTrackers()
	Logger().Info("benchmark started",
		slog.Int("width", b.width), slog.Int("height", b.height),
		slog.Duration("scene_duration", b.sceneDuration))
	return nil
}

// Reset returns the benchmark to the Ready phase. Always available,
// including mid-run and after a failure.
func (b *Benchmark) Reset() {
	b.phase = PhaseReady
	b.sceneIndex = 0
	b.stats = [SceneCount]SceneStats{}
	b.scores = [SceneCount]float64{}
	b.final = 0
	b.failure = nil
	b.lastFrameMs = 0
	b.lastFPS = 0
	b.resetTrackers()
}

// Fail transitions the benchmark to the Failed phase. Used by the runner
// when the device is lost mid-run. No score is produced.
func (b *Benchmark) Fail(err error) {
	if b.phase != PhaseRunning {
		return
	}
	b.phase = PhaseFailed
	b.failure = err
	Logger().Warn("benchmark failed", slog.Any("error", err))
}

// Err returns the failure recorded by Fail, or nil.
func (b *Benchmark) Err() error { return b.failure }

// Update records one frame sample and advances the scene state machine.
// It returns true exactly once, on the frame where the third scene ends
// and the benchmark finishes.
//
// now is the frame's wall-clock time; dt is the time since the previous
// frame in seconds. A non-finite or non-positive dt contributes a zero
// FPS sample and never corrupts the min/max trackers: a benchmark must
// complete and report even on a misbehaving device.
func (b *Benchmark) Update(now time.Time, dt float64) bool {
	if b.phase != PhaseRunning {
		return false
	}

	if !isFinite(dt) || dt < 0 {
		dt = 0
	}
	frameMs := dt * 1000
	fps := 0.0
	if dt > 0 {
		fps = 1 / dt
	}
	b.lastFrameMs = frameMs
	b.lastFPS = fps

	st := &b.stats[b.sceneIndex]
	st.FrameTimes = append(st.FrameTimes, frameMs)
	st.FPS = append(st.FPS, fps)

	if isFinite(fps) && fps > 0 {
		if fps < b.sceneMinFPS {
			b.sceneMinFPS = fps
		}
		if fps > b.sceneMaxFPS {
			b.sceneMaxFPS = fps
		}
	}

	if now.Sub(b.sceneStart) < b.sceneDuration {
		return false
	}

	// Scene complete: freeze its stats and score it.
	b.scores[b.sceneIndex] = b.computeSceneScore(b.sceneIndex)
	Logger().Info("scene complete",
		slog.Int("scene", b.sceneIndex),
		slog.String("name", b.info[b.sceneIndex].name),
		slog.Float64("score", b.scores[b.sceneIndex]))

	b.sceneIndex++
	if b.sceneIndex >= SceneCount {
		b.sceneIndex = SceneCount - 1
		b.final = b.computeFinalScore()
		b.phase = PhaseFinished
		Logger().Info("benchmark finished", slog.Int("final_score", b.final))
		return true
	}

	b.sceneStart = now
	b.resetTrackers()
	return false
}

// AddGPUTime appends an asynchronously-read GPU pass time (milliseconds)
// to the active scene's stats. Ignored when not running; negative values
// (the unavailable sentinel) are dropped.
func (b *Benchmark) AddGPUTime(ms float64) {
	if b.phase != PhaseRunning || !isFinite(ms) || ms < 0 {
		return
	}
	st := &b.stats[b.sceneIndex]
	st.GPUTimes = append(st.GPUTimes, ms)
}

// computeSceneScore reduces a finished scene's FPS samples to one score:
// mean throughput, penalized for unstable frame pacing and normalized by
// framebuffer resolution.
func (b *Benchmark) computeSceneScore(i int) float64 {
	valid := lo.Filter(b.stats[i].FPS, func(f float64, _ int) bool {
		return isFinite(f) && f > 0
	})
	if len(valid) == 0 {
		return 0
	}

	mean := lo.Sum(valid) / float64(len(valid))
	variance := 0.0
	for _, f := range valid {
		d := f - mean
		variance += d * d
	}
	variance /= float64(len(valid))
	stdDev := math.Sqrt(variance)

	// Coefficient-of-variation penalty, floored at 0.5: chaotic frame
	// pacing can halve the raw throughput score but never zero it.
	stability := clamp(1-stdDev/mean, 0.5, 1.0)

	resolution := float64(b.width*b.height) / float64(referenceWidth*referenceHeight)

	return mean * stability * resolution
}

// computeFinalScore folds the three scene scores into the integer points
// value: round((s0*0.4 + s1*0.35 + s2*0.25) * 100).
func (b *Benchmark) computeFinalScore() int {
	weighted := 0.0
	for i, s := range b.scores {
		weighted += s * sceneWeights[i]
	}
	return int(math.Round(weighted * 100))
}

// FinalScore returns the final points value. It is defined only once the
// benchmark has finished; earlier calls return ErrNotFinished.
func (b *Benchmark) FinalScore() (int, error) {
	if b.phase != PhaseFinished {
		return 0, ErrNotFinished
	}
	return b.final, nil
}

// SceneScores returns a copy of the per-scene scores. Entries for scenes
// that have not finished are zero.
func (b *Benchmark) SceneScores() [SceneCount]float64 {
	return b.scores
}

// SceneStatsFor returns the accumulated stats for scene i. The returned
// value is a shallow copy; the sample slices must be treated as read-only.
func (b *Benchmark) SceneStatsFor(i int) SceneStats {
	if i < 0 || i >= SceneCount {
		return SceneStats{}
	}
	return b.stats[i]
}

// AvgFPS reports the mean of the most recent smoothingWindow FPS samples
// of the active scene: a responsive but stable live readout. Returns 0
// when no samples exist.
func (b *Benchmark) AvgFPS() float64 {
	return tailMean(b.stats[b.sceneIndex].FPS, 0)
}

// AvgGPUTime reports the mean of the most recent smoothingWindow GPU time
// samples of the active scene, in milliseconds. Returns -1 when no
// samples exist: GPU timing may lag by a frame or be entirely unavailable.
func (b *Benchmark) AvgGPUTime() float64 {
	return tailMean(b.stats[b.sceneIndex].GPUTimes, gpuTimeUnavailable)
}

// Telemetry returns the live readout snapshot for the overlay surface.
// None of these values is authoritative for scoring.
func (b *Benchmark) Telemetry(now time.Time) Telemetry {
	t := Telemetry{
		Phase:        b.phase,
		SceneIndex:   b.sceneIndex,
		SceneName:    b.info[b.sceneIndex].name,
		Primitives:   b.info[b.sceneIndex].primitives,
		FPS:          b.lastFPS,
		FrameTimeMs:  b.lastFrameMs,
		AvgFPS:       b.AvgFPS(),
		AvgGPUTimeMs: b.AvgGPUTime(),
	}
	if b.sceneMinFPS != math.Inf(1) {
		t.SceneMinFPS = b.sceneMinFPS
	}
	t.SceneMaxFPS = b.sceneMaxFPS
	if b.phase == PhaseRunning && b.sceneDuration > 0 {
		p := now.Sub(b.sceneStart).Seconds() / b.sceneDuration.Seconds() * 100
		t.SceneProgress = clamp(p, 0, 100)
	}
	if b.phase == PhaseFinished {
		t.SceneProgress = 100
	}
	return t
}

// resetTrackers clears the per-scene min/max FPS trackers.
func (b *Benchmark) resetTrackers() {
	b.sceneMinFPS = math.Inf(1)
	b.sceneMaxFPS = 0
}

// tailMean averages the last smoothingWindow entries of samples, or
// returns empty if there are none.
func tailMean(samples []float64, empty float64) float64 {
	if len(samples) == 0 {
		return empty
	}
	start := 0
	if len(samples) > smoothingWindow {
		start = len(samples) - smoothingWindow
	}
	tail := samples[start:]
	return lo.Sum(tail) / float64(len(tail))
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
