// Copyright 2026 The gogpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpumark/internal/gpu"
)

const raymarchUniformSize = 16

// RayMarch is the pixel-bound workload: a fullscreen triangle whose
// fragment stage sphere-traces a signed-distance scene.
type RayMarch struct {
	ctx     *gpu.Context
	targets *gpu.RenderTargets

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
	bindGroup     hal.BindGroup
	uniformBuf    *gpu.Buffer

	width  int
	height int
	time   float64
}

// NewRayMarch creates the scene's pipeline and uniform buffer.
func NewRayMarch(ctx *gpu.Context, targets *gpu.RenderTargets) (*RayMarch, error) {
	s := &RayMarch{
		ctx:     ctx,
		targets: targets,
		width:   ctx.Width(),
		height:  ctx.Height(),
	}

	shader, err := gpu.NewShaderModule(ctx, "raymarch", raymarchWGSL)
	if err != nil {
		return nil, err
	}
	s.shader = shader

	uniformBuf, err := gpu.NewBuffer(ctx, &gpu.BufferDescriptor{
		Label: "raymarch_uniforms",
		Size:  raymarchUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.uniformBuf = uniformBuf

	if ctx.Mock() {
		return s, nil
	}
	if err := s.createPipeline(); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

func (s *RayMarch) createPipeline() error {
	device := s.ctx.Device()

	uniformLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "raymarch_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create uniform layout: %w", err)
	}
	s.uniformLayout = uniformLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "raymarch_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{s.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	s.pipeLayout = pipeLayout

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "raymarch_pipeline",
		Layout: s.pipeLayout,
		Vertex: hal.VertexState{
			Module:     s.shader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     s.shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gpu.ColorFormat,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		return fmt.Errorf("create render pipeline: %w", err)
	}
	s.pipeline = pipeline

	bindGroup, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "raymarch_bind",
		Layout: s.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: s.uniformBuf.NativeHandle(), Offset: 0, Size: raymarchUniformSize,
			}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group: %w", err)
	}
	s.bindGroup = bindGroup
	return nil
}

// Name returns the scene's display name.
func (s *RayMarch) Name() string { return "Ray March" }

// PrimitiveCount describes the workload for the overlay.
func (s *RayMarch) PrimitiveCount() string { return "fullscreen SDF, 96 steps/ray" }

// Update stages the frame's uniform data and enqueues the upload.
func (s *RayMarch) Update(t, dt float64) {
	s.time = t

	var raw [raymarchUniformSize]byte
	binary.LittleEndian.PutUint32(raw[0:], math.Float32bits(float32(s.width)))
	binary.LittleEndian.PutUint32(raw[4:], math.Float32bits(float32(s.height)))
	binary.LittleEndian.PutUint32(raw[8:], math.Float32bits(float32(t)))
	s.uniformBuf.Write(0, raw[:])
}

// Render encodes the timed fullscreen pass.
func (s *RayMarch) Render(f *gpu.Frame) error {
	rp, err := f.TimedRenderPass(gpu.RenderPassConfig{
		Label:      "raymarch_pass",
		ColorView:  s.targets.ColorView(),
		ClearColor: gputypes.Color{R: 0.02, G: 0.02, B: 0.05, A: 1},
	})
	if err != nil {
		return err
	}
	rp.SetPipeline(s.pipeline)
	rp.SetBindGroup(0, s.bindGroup)
	rp.Draw(3, 1, 0, 0)
	rp.End()
	return nil
}

// Resize records the new output dimensions for the next uniform upload.
func (s *RayMarch) Resize(width, height int) {
	s.width = width
	s.height = height
}

// Destroy releases the scene's GPU resources.
func (s *RayMarch) Destroy() {
	if s.uniformBuf != nil {
		s.uniformBuf.Destroy()
		s.uniformBuf = nil
	}
	if s.ctx.Mock() {
		return
	}
	device := s.ctx.Device()
	if s.bindGroup != nil {
		device.DestroyBindGroup(s.bindGroup)
		s.bindGroup = nil
	}
	if s.pipeline != nil {
		device.DestroyRenderPipeline(s.pipeline)
		s.pipeline = nil
	}
	if s.pipeLayout != nil {
		device.DestroyPipelineLayout(s.pipeLayout)
		s.pipeLayout = nil
	}
	if s.uniformLayout != nil {
		device.DestroyBindGroupLayout(s.uniformLayout)
		s.uniformLayout = nil
	}
	if s.shader != nil {
		device.DestroyShaderModule(s.shader)
		s.shader = nil
	}
}
