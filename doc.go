// Package gpumark implements a self-contained GPU performance benchmark
// for the GoGPU ecosystem.
//
// # Overview
//
// gpumark drives a fixed sequence of three rendering workloads: a
// pixel-bound ray-marched SDF scene, a compute-bound one-million-particle
// simulation, and a geometry/instancing stress test. It measures frame
// and GPU execution time during each and reduces the measurements to a
// single comparable score.
//
// # Quick Start
//
//	runner, err := gpumark.Open(gpumark.DefaultOptions())
//	if err != nil {
//	    log.Fatal(err) // no usable GPU
//	}
//	defer runner.Close()
//
//	result, err := runner.Run(context.Background())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.FinalScore)
//
// # Scoring
//
// Each scene runs for a fixed 20 seconds. A scene's score is the mean FPS
// over its run, multiplied by a frame-pacing stability factor (a
// coefficient-of-variation penalty floored at 0.5) and a resolution factor
// that normalizes against a 1920x1080 reference framebuffer. The final
// score is the weighted sum of the three scene scores (weights 0.40, 0.35,
// 0.25), scaled by 100 and rounded to an integer.
//
// # Logging
//
// gpumark produces no log output by default. Call [SetLogger] with a
// *slog.Logger to enable diagnostics.
package gpumark
