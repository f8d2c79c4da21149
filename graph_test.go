package gpumark

import (
	"image/color"
	"testing"
)

func TestGraphWindowEviction(t *testing.T) {
	g := NewFrameTimeGraph()
	if g.Len() != 0 {
		t.Fatalf("empty graph Len = %d, want 0", g.Len())
	}

	for i := 0; i < graphWindow+30; i++ {
		g.Push(float64(i))
	}
	if g.Len() != graphWindow {
		t.Fatalf("Len after overflow = %d, want %d", g.Len(), graphWindow)
	}

	samples := g.Samples()
	if len(samples) != graphWindow {
		t.Fatalf("Samples length = %d, want %d", len(samples), graphWindow)
	}
	// Oldest-first order: the first 30 pushes were evicted.
	if samples[0] != 30 {
		t.Errorf("oldest sample = %v, want 30", samples[0])
	}
	if last := samples[len(samples)-1]; last != float64(graphWindow+29) {
		t.Errorf("newest sample = %v, want %v", last, float64(graphWindow+29))
	}
}

func TestGraphPartialWindow(t *testing.T) {
	g := NewFrameTimeGraph()
	g.Push(8)
	g.Push(16)
	g.Push(12)

	if g.Len() != 3 {
		t.Fatalf("Len = %d, want 3", g.Len())
	}
	samples := g.Samples()
	want := []float64{8, 16, 12}
	for i, w := range want {
		if samples[i] != w {
			t.Errorf("samples[%d] = %v, want %v", i, samples[i], w)
		}
	}
	if g.Max() != 16 {
		t.Errorf("Max = %v, want 16", g.Max())
	}
}

func TestGraphMaxEmpty(t *testing.T) {
	g := NewFrameTimeGraph()
	if g.Max() != 0 {
		t.Fatalf("Max of empty graph = %v, want 0", g.Max())
	}
}

func TestGraphRenderImage(t *testing.T) {
	g := NewFrameTimeGraph()
	for i := 0; i < graphWindow; i++ {
		g.Push(16)
	}

	img := g.RenderImage(graphWindow, 64)
	b := img.Bounds()
	if b.Dx() != graphWindow || b.Dy() != 64 {
		t.Fatalf("image size = %dx%d, want %dx64", b.Dx(), b.Dy(), graphWindow)
	}

	// 16 ms bars against the 33.3 ms floor fill just under half the
	// height: the top row is background, the bottom row is bar color.
	if got := img.RGBAAt(0, 0); got != graphBackground {
		t.Errorf("top-left pixel = %v, want background %v", got, graphBackground)
	}
	if got := img.RGBAAt(0, 63); got != graphGood {
		t.Errorf("bottom-left pixel = %v, want good band %v", got, graphGood)
	}
}

func TestGraphColorBands(t *testing.T) {
	cases := []struct {
		name string
		ms   float64
		want color.RGBA
	}{
		{"under 60fps budget", 10, graphGood},
		{"under 30fps budget", 25, graphWarn},
		{"over 30fps budget", 50, graphBad},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			g := NewFrameTimeGraph()
			g.Push(c.ms)
			img := g.RenderImage(graphWindow, 64)
			// The single sample lands in the rightmost column.
			if got := img.RGBAAt(graphWindow-1, 63); got != c.want {
				t.Errorf("bar color for %vms = %v, want %v", c.ms, got, c.want)
			}
		})
	}
}

func TestGraphRenderScaled(t *testing.T) {
	g := NewFrameTimeGraph()
	g.Push(16)
	img := g.RenderImage(480, 120)
	b := img.Bounds()
	if b.Dx() != 480 || b.Dy() != 120 {
		t.Fatalf("scaled image size = %dx%d, want 480x120", b.Dx(), b.Dy())
	}

	// Degenerate sizes fall back to defaults rather than panicking.
	img = g.RenderImage(0, -5)
	if img.Bounds().Dx() <= 0 || img.Bounds().Dy() <= 0 {
		t.Fatalf("fallback image has empty bounds: %v", img.Bounds())
	}
}
