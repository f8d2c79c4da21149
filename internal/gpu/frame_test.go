package gpu

import (
	"errors"
	"testing"
)

func newMockFrame(t *testing.T) (*Frame, *Timer) {
	t.Helper()
	ctx := NewMockContext(256, 256, true)
	timer, err := NewTimer(ctx)
	if err != nil {
		t.Fatalf("NewTimer failed: %v", err)
	}
	f, err := BeginFrame(ctx, timer)
	if err != nil {
		t.Fatalf("BeginFrame failed: %v", err)
	}
	return f, timer
}

func TestFrameSingleTimedPass(t *testing.T) {
	f, _ := newMockFrame(t)

	rp, err := f.TimedRenderPass(RenderPassConfig{Label: "scene"})
	if err != nil {
		t.Fatalf("first TimedRenderPass failed: %v", err)
	}
	if !f.TimedPassEncoded() {
		t.Fatal("timed pass not recorded")
	}
	rp.End()

	if _, err := f.TimedRenderPass(RenderPassConfig{Label: "extra"}); !errors.Is(err, ErrTimedPassUsed) {
		t.Fatalf("second TimedRenderPass = %v, want ErrTimedPassUsed", err)
	}
}

func TestFrameSubmitOnce(t *testing.T) {
	f, _ := newMockFrame(t)

	rp, err := f.TimedRenderPass(RenderPassConfig{Label: "scene"})
	if err != nil {
		t.Fatalf("TimedRenderPass failed: %v", err)
	}
	rp.End()

	if err := f.Submit(); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := f.Submit(); !errors.Is(err, ErrFrameSubmitted) {
		t.Fatalf("second Submit = %v, want ErrFrameSubmitted", err)
	}
	if _, err := f.TimedRenderPass(RenderPassConfig{}); !errors.Is(err, ErrFrameSubmitted) {
		t.Fatalf("TimedRenderPass after Submit = %v, want ErrFrameSubmitted", err)
	}
	if _, err := f.ComputePass("sim"); !errors.Is(err, ErrFrameSubmitted) {
		t.Fatalf("ComputePass after Submit = %v, want ErrFrameSubmitted", err)
	}
}

func TestFrameComputeThenRender(t *testing.T) {
	f, _ := newMockFrame(t)

	cp, err := f.ComputePass("sim")
	if err != nil {
		t.Fatalf("ComputePass failed: %v", err)
	}
	cp.Dispatch(16, 1, 1)
	cp.End()
	cp.End() // idempotent

	rp, err := f.TimedRenderPass(RenderPassConfig{Label: "draw"})
	if err != nil {
		t.Fatalf("TimedRenderPass failed: %v", err)
	}
	rp.Draw(3, 1, 0, 0)
	rp.End()

	if err := f.Submit(); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
}

func TestFrameDeviceLost(t *testing.T) {
	ctx := NewMockContext(256, 256, false)
	ctx.NotifyLost()
	if _, err := BeginFrame(ctx, nil); !errors.Is(err, ErrDeviceLost) {
		t.Fatalf("BeginFrame on lost context = %v, want ErrDeviceLost", err)
	}
}

func TestPassStateString(t *testing.T) {
	cases := []struct {
		state PassState
		want  string
	}{
		{PassStateRecording, "Recording"},
		{PassStateEnded, "Ended"},
		{PassState(9), "Unknown(9)"},
	}
	for _, tc := range cases {
		if got := tc.state.String(); got != tc.want {
			t.Errorf("PassState(%d).String() = %q, want %q", int(tc.state), got, tc.want)
		}
	}
}

func TestPassIgnoresCommandsAfterEnd(t *testing.T) {
	f, _ := newMockFrame(t)

	rp, err := f.TimedRenderPass(RenderPassConfig{Label: "draw"})
	if err != nil {
		t.Fatalf("TimedRenderPass failed: %v", err)
	}
	rp.End()
	// Must not panic or transition state.
	rp.Draw(3, 1, 0, 0)
	rp.SetVertexBuffer(0, nil)
	if rp.state != PassStateEnded {
		t.Fatalf("pass state = %v, want Ended", rp.state)
	}
}
