// Copyright 2026 The gogpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpumark/internal/gpu"
)

// ParticleCount is fixed for this version: the population is recycled,
// never grown or shrunk.
const ParticleCount = 1_000_000

const (
	particleStride      = 32 // vec3 pos + f32 life + vec3 vel + f32 seed
	particleBufferSize  = ParticleCount * particleStride
	simUniformSize      = 16
	drawUniformSize     = 96 // mat4 + 2x vec4
	simWorkgroupSize    = 256
	particleSpawnRadius = 20.0
)

// ParticleCompute is the compute-bound workload: one million particles
// evolved by a compute pass and drawn as additive billboards.
//
// The two storage buffers ping-pong by index flip. Step k's compute
// reads buffers[k%2] and writes buffers[(k+1)%2]; the render pass of the
// same frame reads the buffer the compute just wrote, and step k+1 reads
// it back as its source. There is exactly one writer per frame and the
// host never reads particle data, so no locking is involved.
type ParticleCompute struct {
	ctx     *gpu.Context
	targets *gpu.RenderTargets
	camera  *Camera

	simShader  hal.ShaderModule
	drawShader hal.ShaderModule

	simLayout      hal.BindGroupLayout
	simPipeLayout  hal.PipelineLayout
	simPipeline    hal.ComputePipeline
	drawLayout     hal.BindGroupLayout
	drawPipeLayout hal.PipelineLayout
	drawPipeline   hal.RenderPipeline

	buffers    [2]*gpu.Buffer
	simUniform *gpu.Buffer
	drawUniform *gpu.Buffer

	// simBinds[i] reads buffers[i] and writes buffers[1-i];
	// drawBinds[i] reads buffers[i].
	simBinds  [2]hal.BindGroup
	drawBinds [2]hal.BindGroup

	step uint64
	time float64
}

// NewParticleCompute creates the simulation and draw pipelines, both
// storage buffers, and the initial particle population.
func NewParticleCompute(ctx *gpu.Context, targets *gpu.RenderTargets) (*ParticleCompute, error) {
	s := &ParticleCompute{
		ctx:     ctx,
		targets: targets,
		camera:  NewCamera(ctx.Width(), ctx.Height()),
	}

	simShader, err := gpu.NewShaderModule(ctx, "particle_sim", particleSimWGSL)
	if err != nil {
		return nil, err
	}
	s.simShader = simShader

	drawShader, err := gpu.NewShaderModule(ctx, "particle_draw", particleDrawWGSL)
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.drawShader = drawShader

	for i := range s.buffers {
		buf, err := gpu.NewBuffer(ctx, &gpu.BufferDescriptor{
			Label: fmt.Sprintf("particles_%d", i),
			Size:  particleBufferSize,
			Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
		})
		if err != nil {
			s.Destroy()
			return nil, err
		}
		s.buffers[i] = buf
	}

	simUniform, err := gpu.NewBuffer(ctx, &gpu.BufferDescriptor{
		Label: "particle_sim_uniforms",
		Size:  simUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.simUniform = simUniform

	drawUniform, err := gpu.NewBuffer(ctx, &gpu.BufferDescriptor{
		Label: "particle_draw_uniforms",
		Size:  drawUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.drawUniform = drawUniform

	s.seedParticles()

	if ctx.Mock() {
		return s, nil
	}
	if err := s.createPipelines(); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// seedParticles uploads the initial population into buffer 0, the
// source of the first simulation step.
func (s *ParticleCompute) seedParticles() {
	rng := rand.New(rand.NewSource(42))
	raw := make([]byte, particleBufferSize)
	for i := 0; i < ParticleCount; i++ {
		off := i * particleStride
		put := func(o int, v float32) {
			binary.LittleEndian.PutUint32(raw[off+o:], math.Float32bits(v))
		}
		put(0, (rng.Float32()-0.5)*particleSpawnRadius)
		put(4, (rng.Float32()-0.5)*particleSpawnRadius)
		put(8, (rng.Float32()-0.5)*particleSpawnRadius)
		put(12, 2+rng.Float32()*10) // life
		put(16, (rng.Float32()-0.5)*2)
		put(20, (rng.Float32()-0.5)*2)
		put(24, (rng.Float32()-0.5)*2)
		put(28, rng.Float32()*1e4) // seed
	}
	s.buffers[0].Write(0, raw)
}

func (s *ParticleCompute) createPipelines() error {
	device := s.ctx.Device()

	simLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "particle_sim_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
			{
				Binding:    2,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create sim layout: %w", err)
	}
	s.simLayout = simLayout

	simPipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "particle_sim_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{s.simLayout},
	})
	if err != nil {
		return fmt.Errorf("create sim pipeline layout: %w", err)
	}
	s.simPipeLayout = simPipeLayout

	simPipeline, err := device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "particle_sim_pipeline",
		Layout: s.simPipeLayout,
		Compute: hal.ComputeState{
			Module:     s.simShader,
			EntryPoint: "cs_main",
		},
	})
	if err != nil {
		return fmt.Errorf("create sim pipeline: %w", err)
	}
	s.simPipeline = simPipeline

	drawLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "particle_draw_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageVertex,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("create draw layout: %w", err)
	}
	s.drawLayout = drawLayout

	drawPipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "particle_draw_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{s.drawLayout},
	})
	if err != nil {
		return fmt.Errorf("create draw pipeline layout: %w", err)
	}
	s.drawPipeLayout = drawPipeLayout

	additive := gputypes.BlendState{
		Color: gputypes.BlendComponent{
			Operation: gputypes.BlendOperationAdd,
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
		},
		Alpha: gputypes.BlendComponent{
			Operation: gputypes.BlendOperationAdd,
			SrcFactor: gputypes.BlendFactorOne,
			DstFactor: gputypes.BlendFactorOne,
		},
	}
	drawPipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "particle_draw_pipeline",
		Layout: s.drawPipeLayout,
		Vertex: hal.VertexState{
			Module:     s.drawShader,
			EntryPoint: "vs_main",
		},
		Fragment: &hal.FragmentState{
			Module:     s.drawShader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    gpu.ColorFormat,
					Blend:     &additive,
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
		return fmt.Errorf("create draw pipeline: %w", err)
	}
	s.drawPipeline = drawPipeline

	for i := 0; i < 2; i++ {
		simBind, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  fmt.Sprintf("particle_sim_bind_%d", i),
			Layout: s.simLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: s.simUniform.NativeHandle(), Offset: 0, Size: simUniformSize,
				}},
				{Binding: 1, Resource: gputypes.BufferBinding{
					Buffer: s.buffers[i].NativeHandle(), Offset: 0, Size: particleBufferSize,
				}},
				{Binding: 2, Resource: gputypes.BufferBinding{
					Buffer: s.buffers[1-i].NativeHandle(), Offset: 0, Size: particleBufferSize,
				}},
			},
		})
		if err != nil {
			return fmt.Errorf("create sim bind group %d: %w", i, err)
		}
		s.simBinds[i] = simBind

		drawBind, err := device.CreateBindGroup(&hal.BindGroupDescriptor{
			Label:  fmt.Sprintf("particle_draw_bind_%d", i),
			Layout: s.drawLayout,
			Entries: []gputypes.BindGroupEntry{
				{Binding: 0, Resource: gputypes.BufferBinding{
					Buffer: s.drawUniform.NativeHandle(), Offset: 0, Size: drawUniformSize,
				}},
				{Binding: 1, Resource: gputypes.BufferBinding{
					Buffer: s.buffers[i].NativeHandle(), Offset: 0, Size: particleBufferSize,
				}},
			},
		})
		if err != nil {
			return fmt.Errorf("create draw bind group %d: %w", i, err)
		}
		s.drawBinds[i] = drawBind
	}
	return nil
}

// Name returns the scene's display name.
func (s *ParticleCompute) Name() string { return "Particle Compute" }

// PrimitiveCount describes the workload for the overlay.
func (s *ParticleCompute) PrimitiveCount() string { return "1,000,000 particles" }

// SourceIndex returns the buffer index the next simulation step reads.
func (s *ParticleCompute) SourceIndex() int { return int(s.step % 2) }

// RenderIndex returns the buffer index the render pass reads this
// frame, which is the buffer the frame's compute step writes.
func (s *ParticleCompute) RenderIndex() int { return int((s.step + 1) % 2) }

// Update stages the frame's uniforms.
func (s *ParticleCompute) Update(t, dt float64) {
	s.time = t

	var sim [simUniformSize]byte
	binary.LittleEndian.PutUint32(sim[0:], math.Float32bits(float32(t)))
	binary.LittleEndian.PutUint32(sim[4:], math.Float32bits(float32(dt)))
	binary.LittleEndian.PutUint32(sim[8:], ParticleCount)
	s.simUniform.Write(0, sim[:])

	s.camera.Orbit(float32(t)*0.2, 26, 8)
	viewProj := s.camera.ViewProj()

	// Camera right/up vectors for billboard orientation come from the
	// view matrix rows.
	view := mgl32.LookAtV(s.camera.Eye(), mgl32.Vec3{0, 0, 0}, mgl32.Vec3{0, 1, 0})
	right := mgl32.Vec4{view.At(0, 0), view.At(0, 1), view.At(0, 2), 0}
	up := mgl32.Vec4{view.At(1, 0), view.At(1, 1), view.At(1, 2), 0}

	var draw [drawUniformSize]byte
	putMat4(draw[0:], viewProj)
	putVec4(draw[64:], right)
	putVec4(draw[80:], up)
	s.drawUniform.Write(0, draw[:])
}

// Render encodes the simulation compute pass, then the timed billboard
// render pass reading the buffer the compute just wrote.
func (s *ParticleCompute) Render(f *gpu.Frame) error {
	src := s.SourceIndex()
	dst := s.RenderIndex()

	cp, err := f.ComputePass("particle_sim")
	if err != nil {
		return err
	}
	cp.SetPipeline(s.simPipeline)
	cp.SetBindGroup(0, s.simBinds[src])
	cp.Dispatch((ParticleCount+simWorkgroupSize-1)/simWorkgroupSize, 1, 1)
	cp.End()

	rp, err := f.TimedRenderPass(gpu.RenderPassConfig{
		Label:      "particle_draw_pass",
		ColorView:  s.targets.ColorView(),
		ClearColor: gputypes.Color{R: 0.01, G: 0.01, B: 0.02, A: 1},
	})
	if err != nil {
		return err
	}
	rp.SetPipeline(s.drawPipeline)
	rp.SetBindGroup(0, s.drawBinds[dst])
	rp.Draw(6, ParticleCount, 0, 0)
	rp.End()

	s.step++
	return nil
}

// Resize updates the camera projection.
func (s *ParticleCompute) Resize(width, height int) {
	s.camera.SetAspect(width, height)
}

// Destroy releases the scene's GPU resources.
func (s *ParticleCompute) Destroy() {
	for i, buf := range s.buffers {
		if buf != nil {
			buf.Destroy()
			s.buffers[i] = nil
		}
	}
	if s.simUniform != nil {
		s.simUniform.Destroy()
		s.simUniform = nil
	}
	if s.drawUniform != nil {
		s.drawUniform.Destroy()
		s.drawUniform = nil
	}
	if s.ctx.Mock() {
		return
	}
	device := s.ctx.Device()
	for i, bg := range s.simBinds {
		if bg != nil {
			device.DestroyBindGroup(bg)
			s.simBinds[i] = nil
		}
	}
	for i, bg := range s.drawBinds {
		if bg != nil {
			device.DestroyBindGroup(bg)
			s.drawBinds[i] = nil
		}
	}
	if s.simPipeline != nil {
		device.DestroyComputePipeline(s.simPipeline)
		s.simPipeline = nil
	}
	if s.drawPipeline != nil {
		device.DestroyRenderPipeline(s.drawPipeline)
		s.drawPipeline = nil
	}
	if s.simPipeLayout != nil {
		device.DestroyPipelineLayout(s.simPipeLayout)
		s.simPipeLayout = nil
	}
	if s.drawPipeLayout != nil {
		device.DestroyPipelineLayout(s.drawPipeLayout)
		s.drawPipeLayout = nil
	}
	if s.simLayout != nil {
		device.DestroyBindGroupLayout(s.simLayout)
		s.simLayout = nil
	}
	if s.drawLayout != nil {
		device.DestroyBindGroupLayout(s.drawLayout)
		s.drawLayout = nil
	}
	if s.simShader != nil {
		device.DestroyShaderModule(s.simShader)
		s.simShader = nil
	}
	if s.drawShader != nil {
		device.DestroyShaderModule(s.drawShader)
		s.drawShader = nil
	}
}

func putMat4(dst []byte, m mgl32.Mat4) {
	for i := 0; i < 16; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(m[i]))
	}
}

func putVec4(dst []byte, v mgl32.Vec4) {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(dst[i*4:], math.Float32bits(v[i]))
	}
}
