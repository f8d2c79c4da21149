// Copyright 2026 The gogpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpumark

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gogpu/gpumark/internal/gpu"
	"github.com/gogpu/gpumark/scene"
)

// Result is the outcome of a completed benchmark run.
type Result struct {
	FinalScore  int
	SceneScores [SceneCount]float64
	Adapter     string
}

// Runner is the per-frame coordinator. It owns the device context, the
// three scenes, the timer, and the graph, and drives one frame per Step
// call: orchestrator update, active scene update and render, a single
// submission, and the fire-and-forget GPU time readback.
//
// Runner is single-threaded; the GPU executes on its own timeline.
type Runner struct {
	ctx     *gpu.Context
	targets *gpu.RenderTargets
	timer   *gpu.Timer
	bench   *Benchmark
	graph   *FrameTimeGraph

	scenes [SceneCount]scene.Scene
	opts   Options

	started   bool
	lastFrame time.Time
	startTime time.Time
}

// Open creates a GPU device context and a runner on top of it. This is
// the entry point for standalone use; hosts that already own a device
// should build a context via the internal provider path instead.
func Open(opts Options) (*Runner, error) {
	opts = opts.withDefaults()
	ctx, err := gpu.NewContext(gpu.ContextOptions{
		Width:  opts.Width,
		Height: opts.Height,
	})
	if err != nil {
		return nil, err
	}
	return NewRunner(ctx, opts)
}

// NewRunner initializes the three scenes and supporting state on the
// given context. The runner takes ownership of the context; Close
// releases everything.
func NewRunner(ctx *gpu.Context, opts Options) (*Runner, error) {
	opts = opts.withDefaults()
	r := &Runner{
		ctx:   ctx,
		bench: NewBenchmark(opts),
		graph: NewFrameTimeGraph(),
		opts:  opts,
	}
	r.bench.SetRenderSize(ctx.Width(), ctx.Height())

	targets, err := gpu.NewRenderTargets(ctx)
	if err != nil {
		return nil, fmt.Errorf("gpumark: create render targets: %w", err)
	}
	r.targets = targets

	timer, err := gpu.NewTimer(ctx)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("gpumark: create timer: %w", err)
	}
	r.timer = timer

	rayMarch, err := scene.NewRayMarch(ctx, targets)
	if err != nil {
		r.Close()
		return nil, fmt.Errorf("gpumark: create ray march scene: %w", err)
	}
	particles, err := scene.NewParticleCompute(ctx, targets)
	if err != nil {
		rayMarch.Destroy()
		r.Close()
		return nil, fmt.Errorf("gpumark: create particle scene: %w", err)
	}
	geometry, err := scene.NewGeometryStress(ctx, targets)
	if err != nil {
		rayMarch.Destroy()
		particles.Destroy()
		r.Close()
		return nil, fmt.Errorf("gpumark: create geometry scene: %w", err)
	}
	r.scenes = [SceneCount]scene.Scene{rayMarch, particles, geometry}

	for i, s := range r.scenes {
		r.bench.SetSceneInfo(i, s.Name(), s.PrimitiveCount())
	}
	return r, nil
}

// Benchmark exposes the orchestrator for telemetry readers.
func (r *Runner) Benchmark() *Benchmark { return r.bench }

// Graph exposes the frame-time graph for overlay rendering.
func (r *Runner) Graph() *FrameTimeGraph { return r.graph }

// Start begins a benchmark run at the given wall-clock time.
func (r *Runner) Start(now time.Time) error {
	if err := r.bench.Start(now); err != nil {
		return err
	}
	r.started = false
	r.startTime = now
	return nil
}

// Step executes one frame. It returns true when the benchmark has
// finished; the final frame performs no rendering. A device loss stops
// the run with an error and moves the orchestrator to PhaseFailed.
func (r *Runner) Step(now time.Time) (bool, error) {
	dt := 0.0
	if r.started {
		dt = now.Sub(r.lastFrame).Seconds()
	}
	r.started = true
	r.lastFrame = now

	// Pump the previous frame's readback before encoding new work.
	r.timer.Poll()

	if finished := r.bench.Update(now, dt); finished {
		return true, nil
	}
	if r.bench.Phase() != PhaseRunning {
		return true, r.bench.Err()
	}

	active := r.scenes[r.bench.SceneIndex()]
	t := now.Sub(r.startTime).Seconds()
	active.Update(t, dt)

	f, err := gpu.BeginFrame(r.ctx, r.timer)
	if err != nil {
		r.bench.Fail(err)
		return true, err
	}
	if err := active.Render(f); err != nil {
		r.bench.Fail(err)
		return true, err
	}
	if err := f.Submit(); err != nil {
		r.bench.Fail(err)
		return true, err
	}

	// Fire-and-forget: the sample lands on a later frame's Poll, or is
	// dropped if a read is still in flight.
	r.timer.ReadAsync(r.bench.AddGPUTime)

	r.graph.Push(dt * 1000)
	return false, nil
}

// Run starts the benchmark and drives Step until it finishes or the
// context is cancelled. Cancellation stops silently; device loss is
// returned as an error.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	now := time.Now()
	if err := r.Start(now); err != nil {
		return nil, err
	}

	for {
		select {
		case <-ctx.Done():
			Logger().Info("benchmark cancelled")
			return nil, nil
		default:
		}

		done, err := r.Step(time.Now())
		if err != nil {
			return nil, err
		}
		if done {
			break
		}
	}
	return r.Result()
}

// Result returns the final score once the benchmark has finished.
func (r *Runner) Result() (*Result, error) {
	final, err := r.bench.FinalScore()
	if err != nil {
		return nil, err
	}
	res := &Result{
		FinalScore:  final,
		SceneScores: r.bench.SceneScores(),
		Adapter:     r.ctx.AdapterName(),
	}
	if r.opts.ReportPath != "" {
		if werr := WriteReport(r.opts.ReportPath, res, r.graph); werr != nil {
			Logger().Warn("report write failed", slog.Any("error", werr))
		}
	}
	return res, nil
}

// OnResize reconfigures the render targets and notifies every scene.
// The geometry scene recreates its depth texture here.
func (r *Runner) OnResize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}
	r.ctx.Resize(width, height)
	r.bench.SetRenderSize(width, height)
	if err := r.targets.Resize(uint32(width), uint32(height)); err != nil {
		r.bench.Fail(err)
		return
	}
	for _, s := range r.scenes {
		s.Resize(width, height)
	}
}

// Telemetry returns the live overlay snapshot for the current frame.
func (r *Runner) Telemetry(now time.Time) Telemetry {
	return r.bench.Telemetry(now)
}

// Close releases all GPU resources and the device context. Safe to call
// after a partial initialization failure.
func (r *Runner) Close() {
	for i, s := range r.scenes {
		if s != nil {
			s.Destroy()
			r.scenes[i] = nil
		}
	}
	if r.timer != nil {
		r.timer.Destroy()
		r.timer = nil
	}
	if r.targets != nil {
		r.targets.Destroy()
		r.targets = nil
	}
	r.ctx.Close()
}
