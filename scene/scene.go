// Copyright 2026 The gogpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package scene implements the three benchmark workloads: a pixel-bound
// ray-marched distance field, a compute-bound million-particle
// simulation, and a vertex-bound instanced geometry stress test.
//
// Each scene exclusively owns its GPU resources. Update mutates only
// CPU-side uniform staging data and enqueues buffer writes; Render
// encodes exactly one timed render pass, optionally preceded by an
// untimed compute pass, and never blocks.
package scene

import (
	_ "embed"

	"github.com/gogpu/gpumark/internal/gpu"
)

// Scene is the contract every benchmark workload implements. The
// orchestrator and runner hold only this interface.
type Scene interface {
	// Name returns the scene's display name.
	Name() string

	// PrimitiveCount is a static descriptive label for the overlay.
	PrimitiveCount() string

	// Update advances CPU-side state to absolute time t (seconds since
	// scene start) with frame delta dt.
	Update(t, dt float64)

	// Render encodes the scene's GPU work into the frame.
	Render(f *gpu.Frame) error

	// Resize reacts to new output dimensions in pixels.
	Resize(width, height int)

	// Destroy releases the scene's GPU resources.
	Destroy()
}

//go:embed shaders/raymarch.wgsl
var raymarchWGSL string

//go:embed shaders/particle_sim.wgsl
var particleSimWGSL string

//go:embed shaders/particle_draw.wgsl
var particleDrawWGSL string

//go:embed shaders/geometry.wgsl
var geometryWGSL string
