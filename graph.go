package gpumark

import (
	"image"
	"image/color"

	xdraw "golang.org/x/image/draw"
)

// graphWindow is the number of recent frame-time samples the graph keeps.
const graphWindow = 120

// FrameTimeGraph is a rolling-window visualizer of recent frame times.
// It is a pure consumer of frame-time samples: it has no dependency on
// the orchestrator or the scenes.
type FrameTimeGraph struct {
	samples []float64
	head    int
	filled  bool
}

// NewFrameTimeGraph creates an empty graph with the standard window.
func NewFrameTimeGraph() *FrameTimeGraph {
	return &FrameTimeGraph{samples: make([]float64, graphWindow)}
}

// Push appends one frame time in milliseconds, evicting the oldest sample
// once the window is full.
func (g *FrameTimeGraph) Push(ms float64) {
	g.samples[g.head] = ms
	g.head++
	if g.head == len(g.samples) {
		g.head = 0
		g.filled = true
	}
}

// Len returns the number of samples currently held.
func (g *FrameTimeGraph) Len() int {
	if g.filled {
		return len(g.samples)
	}
	return g.head
}

// Samples returns the held samples in order, oldest first.
func (g *FrameTimeGraph) Samples() []float64 {
	if !g.filled {
		out := make([]float64, g.head)
		copy(out, g.samples[:g.head])
		return out
	}
	out := make([]float64, 0, len(g.samples))
	out = append(out, g.samples[g.head:]...)
	out = append(out, g.samples[:g.head]...)
	return out
}

// Max returns the largest held sample, or 0 when empty.
func (g *FrameTimeGraph) Max() float64 {
	max := 0.0
	for _, s := range g.Samples() {
		if s > max {
			max = s
		}
	}
	return max
}

// Frame-time color bands: green under ~60fps budget, yellow under ~30fps,
// red above.
var (
	graphBackground = color.RGBA{R: 16, G: 18, B: 24, A: 255}
	graphGood       = color.RGBA{R: 64, G: 200, B: 96, A: 255}
	graphWarn       = color.RGBA{R: 230, G: 200, B: 64, A: 255}
	graphBad        = color.RGBA{R: 230, G: 72, B: 64, A: 255}
)

// RenderImage draws the rolling window as a bar chart into a new RGBA
// image of the requested size. Bars are scaled against max(current max,
// 33.3 ms) so a steady 60 fps run occupies the lower half.
func (g *FrameTimeGraph) RenderImage(width, height int) *image.RGBA {
	if width <= 0 {
		width = graphWindow * 2
	}
	if height <= 0 {
		height = 64
	}

	// Draw at one pixel per sample, then scale to the requested size.
	src := image.NewRGBA(image.Rect(0, 0, graphWindow, height))
	for y := 0; y < height; y++ {
		for x := 0; x < graphWindow; x++ {
			src.SetRGBA(x, y, graphBackground)
		}
	}

	scaleMax := g.Max()
	if scaleMax < 100.0/3.0 {
		scaleMax = 100.0 / 3.0
	}

	samples := g.Samples()
	offset := graphWindow - len(samples)
	for i, ms := range samples {
		barH := int(ms / scaleMax * float64(height))
		if barH > height {
			barH = height
		}
		c := graphGood
		switch {
		case ms > 1000.0/30.0:
			c = graphBad
		case ms > 1000.0/60.0:
			c = graphWarn
		}
		x := offset + i
		for y := height - barH; y < height; y++ {
			src.SetRGBA(x, y, c)
		}
	}

	if width == graphWindow {
		return src
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), src, src.Bounds(), xdraw.Src, nil)
	return dst
}
