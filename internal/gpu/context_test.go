package gpu

import "testing"

func TestMockContext(t *testing.T) {
	ctx := NewMockContext(1920, 1080, true)

	if !ctx.Mock() {
		t.Fatal("context with no device should be mock")
	}
	if ctx.Device() != nil || ctx.Queue() != nil {
		t.Fatal("mock context exposes device handles")
	}
	if ctx.Width() != 1920 || ctx.Height() != 1080 {
		t.Fatalf("dimensions = %dx%d, want 1920x1080", ctx.Width(), ctx.Height())
	}
	if !ctx.SupportsTimestampQuery() {
		t.Fatal("timestamp capability flag not carried")
	}
	if got := ctx.AdapterName(); got != "mock" {
		t.Fatalf("adapter name = %q, want \"mock\"", got)
	}

	ctx.Resize(1280, 720)
	if ctx.Width() != 1280 || ctx.Height() != 720 {
		t.Fatalf("after resize = %dx%d, want 1280x720", ctx.Width(), ctx.Height())
	}
}

func TestContextLost(t *testing.T) {
	ctx := NewMockContext(64, 64, false)
	if ctx.Lost() {
		t.Fatal("fresh context reports lost")
	}
	ctx.NotifyLost()
	ctx.NotifyLost() // second notification is a no-op
	if !ctx.Lost() {
		t.Fatal("context not marked lost")
	}
}

func TestRenderTargetsMock(t *testing.T) {
	ctx := NewMockContext(800, 600, false)
	rt, err := NewRenderTargets(ctx)
	if err != nil {
		t.Fatalf("NewRenderTargets failed: %v", err)
	}
	defer rt.Destroy()

	if rt.Width() != 800 || rt.Height() != 600 {
		t.Fatalf("targets = %dx%d, want 800x600", rt.Width(), rt.Height())
	}

	if err := rt.Resize(800, 600); err != nil {
		t.Fatalf("same-size Resize failed: %v", err)
	}
	if err := rt.Resize(1024, 768); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if rt.Width() != 1024 || rt.Height() != 768 {
		t.Fatalf("after resize = %dx%d, want 1024x768", rt.Width(), rt.Height())
	}
}

func TestDepthTextureRecreatedOnResize(t *testing.T) {
	ctx := NewMockContext(800, 600, false)
	dt, err := NewDepthTexture(ctx, 800, 600)
	if err != nil {
		t.Fatalf("NewDepthTexture failed: %v", err)
	}
	defer dt.Destroy()

	if got := dt.Generations(); got != 1 {
		t.Fatalf("generations = %d, want 1", got)
	}
	if err := dt.Resize(800, 600); err != nil {
		t.Fatalf("same-size Resize failed: %v", err)
	}
	if got := dt.Generations(); got != 1 {
		t.Fatalf("same-size resize recreated texture, generations = %d", got)
	}
	if err := dt.Resize(1920, 1080); err != nil {
		t.Fatalf("Resize failed: %v", err)
	}
	if got := dt.Generations(); got != 2 {
		t.Fatalf("generations after resize = %d, want 2", got)
	}
	if dt.Width() != 1920 || dt.Height() != 1080 {
		t.Fatalf("after resize = %dx%d, want 1920x1080", dt.Width(), dt.Height())
	}
}
