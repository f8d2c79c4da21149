package gpumark

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
)

const (
	reportWidth  = 640
	reportHeight = 360
	graphHeight  = 200
	barHeight    = 32
	barGap       = 12
)

var (
	reportBackground = color.RGBA{R: 18, G: 18, B: 24, A: 255}
	reportBarColors  = [SceneCount]color.RGBA{
		{R: 66, G: 133, B: 244, A: 255},
		{R: 219, G: 68, B: 55, A: 255},
		{R: 244, G: 180, B: 0, A: 255},
	}
)

// WriteReport renders the run's frame-time graph and per-scene score
// bars into a PNG at path.
func WriteReport(path string, res *Result, graph *FrameTimeGraph) error {
	img := image.NewRGBA(image.Rect(0, 0, reportWidth, reportHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(reportBackground), image.Point{}, draw.Src)

	// Frame-time graph scaled across the top.
	g := graph.RenderImage(graphWindow, 100)
	xdraw.NearestNeighbor.Scale(img,
		image.Rect(0, 0, reportWidth, graphHeight),
		g, g.Bounds(), xdraw.Src, nil)

	// One bar per scene, lengths relative to the best scene score.
	maxScore := 0.0
	for _, s := range res.SceneScores {
		if s > maxScore {
			maxScore = s
		}
	}
	y := graphHeight + barGap
	for i, s := range res.SceneScores {
		w := 0
		if maxScore > 0 {
			w = int(s / maxScore * float64(reportWidth-2*barGap))
		}
		bar := image.Rect(barGap, y, barGap+w, y+barHeight)
		draw.Draw(img, bar, image.NewUniform(reportBarColors[i]), image.Point{}, draw.Src)
		y += barHeight + barGap
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("gpumark: create report: %w", err)
	}
	defer out.Close()
	if err := png.Encode(out, img); err != nil {
		return fmt.Errorf("gpumark: encode report: %w", err)
	}
	return nil
}
