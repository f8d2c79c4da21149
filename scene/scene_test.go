package scene

import (
	"testing"

	"github.com/gogpu/gpumark/internal/gpu"
)

func mockSetup(t *testing.T) (*gpu.Context, *gpu.RenderTargets) {
	t.Helper()
	ctx := gpu.NewMockContext(1920, 1080, true)
	targets, err := gpu.NewRenderTargets(ctx)
	if err != nil {
		t.Fatalf("NewRenderTargets failed: %v", err)
	}
	return ctx, targets
}

func renderOneFrame(t *testing.T, ctx *gpu.Context, s Scene) {
	t.Helper()
	f, err := gpu.BeginFrame(ctx, nil)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	if err := s.Render(f); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if !f.TimedPassEncoded() {
		t.Fatal("scene did not encode a timed render pass")
	}
	if err := f.Submit(); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
}

func TestRayMarchRenders(t *testing.T) {
	ctx, targets := mockSetup(t)
	s, err := NewRayMarch(ctx, targets)
	if err != nil {
		t.Fatalf("NewRayMarch failed: %v", err)
	}
	defer s.Destroy()

	if s.Name() == "" || s.PrimitiveCount() == "" {
		t.Fatal("empty scene labels")
	}
	s.Update(0.5, 1.0/60)
	renderOneFrame(t, ctx, s)
	s.Resize(1280, 720)
	s.Update(0.6, 1.0/60)
	renderOneFrame(t, ctx, s)
}

func TestParticlePingPongParity(t *testing.T) {
	ctx, targets := mockSetup(t)
	s, err := NewParticleCompute(ctx, targets)
	if err != nil {
		t.Fatalf("NewParticleCompute failed: %v", err)
	}
	defer s.Destroy()

	for k := 0; k < 7; k++ {
		wantSrc := k % 2
		wantDst := (k + 1) % 2
		if got := s.SourceIndex(); got != wantSrc {
			t.Fatalf("step %d: source index = %d, want %d", k, got, wantSrc)
		}
		if got := s.RenderIndex(); got != wantDst {
			t.Fatalf("step %d: render index = %d, want %d", k, got, wantDst)
		}
		if s.SourceIndex() == s.RenderIndex() {
			t.Fatalf("step %d: compute reads and writes the same buffer", k)
		}

		s.Update(float64(k)/60, 1.0/60)
		renderOneFrame(t, ctx, s)

		// The buffer written by step k is the source of step k+1.
		if got := s.SourceIndex(); got != wantDst {
			t.Fatalf("after step %d: source index = %d, want %d", k, got, wantDst)
		}
	}
}

func TestGeometryStressRenders(t *testing.T) {
	ctx, targets := mockSetup(t)
	s, err := NewGeometryStress(ctx, targets)
	if err != nil {
		t.Fatalf("NewGeometryStress failed: %v", err)
	}
	defer s.Destroy()

	s.Update(1.0, 1.0/60)
	renderOneFrame(t, ctx, s)

	lights := s.Lights()
	if len(lights) != LightCount {
		t.Fatalf("light count = %d, want %d", len(lights), LightCount)
	}
	for i, l := range lights {
		if l.Intensity <= 0 {
			t.Fatalf("light %d has non-positive intensity", i)
		}
	}

	// The last 4 lights are static.
	before := s.Lights()
	s.Update(2.0, 1.0/60)
	after := s.Lights()
	for i := 8; i < LightCount; i++ {
		if before[i].Position != after[i].Position {
			t.Fatalf("static light %d moved", i)
		}
	}
	for i := 0; i < 8; i++ {
		if before[i].Position == after[i].Position {
			t.Fatalf("orbiting light %d did not move", i)
		}
	}
}

func TestGeometryDepthRecreatedOnResize(t *testing.T) {
	ctx, targets := mockSetup(t)
	s, err := NewGeometryStress(ctx, targets)
	if err != nil {
		t.Fatalf("NewGeometryStress failed: %v", err)
	}
	defer s.Destroy()

	if got := s.DepthGenerations(); got != 1 {
		t.Fatalf("initial depth generations = %d, want 1", got)
	}
	s.Resize(1920, 1080) // same size, no recreation
	if got := s.DepthGenerations(); got != 1 {
		t.Fatalf("same-size resize recreated depth, generations = %d", got)
	}
	s.Resize(2560, 1440)
	if got := s.DepthGenerations(); got != 2 {
		t.Fatalf("depth generations after resize = %d, want 2", got)
	}
}

func TestSceneInterfaceSatisfied(t *testing.T) {
	ctx, targets := mockSetup(t)
	scenes := []Scene{}

	rm, err := NewRayMarch(ctx, targets)
	if err != nil {
		t.Fatalf("NewRayMarch failed: %v", err)
	}
	pc, err := NewParticleCompute(ctx, targets)
	if err != nil {
		t.Fatalf("NewParticleCompute failed: %v", err)
	}
	gs, err := NewGeometryStress(ctx, targets)
	if err != nil {
		t.Fatalf("NewGeometryStress failed: %v", err)
	}
	scenes = append(scenes, rm, pc, gs)

	names := map[string]bool{}
	for _, s := range scenes {
		names[s.Name()] = true
		s.Destroy()
	}
	if len(names) != 3 {
		t.Fatalf("expected 3 distinct scene names, got %v", names)
	}
}
