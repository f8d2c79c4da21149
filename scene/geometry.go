// Copyright 2026 The gogpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scene

import (
	"encoding/binary"
	"fmt"
	"math"
	"math/rand"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/gpumark/internal/gpu"
)

// InstanceCount is the number of icosphere instances in the stress
// scene.
const InstanceCount = 3000

// LightCount is the number of dynamic point lights: 8 orbiting and 4
// static.
const LightCount = 12

const (
	geometrySubdivisions = 2
	instanceStride       = 32 // vec4 pos+phase, vec4 color+roughness
	geoUniformSize       = 96 + LightCount*32
	gridSide             = 15
)

// Light is one dynamic point light, recomputed every frame from
// closed-form time-driven orbits.
type Light struct {
	Position  mgl32.Vec3
	Color     mgl32.Vec3
	Intensity float32
}

// GeometryStress is the vertex and fill-rate bound workload: thousands
// of instanced icospheres on a jittered grid, shaded by a Cook-Torrance
// GGX BRDF under 12 point lights.
type GeometryStress struct {
	ctx     *gpu.Context
	targets *gpu.RenderTargets
	camera  *Camera
	mesh    *Mesh

	shader        hal.ShaderModule
	uniformLayout hal.BindGroupLayout
	pipeLayout    hal.PipelineLayout
	pipeline      hal.RenderPipeline
	bindGroup     hal.BindGroup

	vertexBuf   *gpu.Buffer
	instanceBuf *gpu.Buffer
	uniformBuf  *gpu.Buffer
	depth       *gpu.DepthTexture

	lights [LightCount]Light
	time   float64
}

// NewGeometryStress generates the icosphere mesh, uploads the instance
// grid, and creates the pipeline and depth texture.
func NewGeometryStress(ctx *gpu.Context, targets *gpu.RenderTargets) (*GeometryStress, error) {
	s := &GeometryStress{
		ctx:     ctx,
		targets: targets,
		camera:  NewCamera(ctx.Width(), ctx.Height()),
		mesh:    GenerateIcosphere(geometrySubdivisions),
	}

	shader, err := gpu.NewShaderModule(ctx, "geometry", geometryWGSL)
	if err != nil {
		return nil, err
	}
	s.shader = shader

	vertexBuf, err := gpu.NewBuffer(ctx, &gpu.BufferDescriptor{
		Label: "geometry_vertices",
		Size:  uint64(s.mesh.VertexCount()) * 24,
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.vertexBuf = vertexBuf
	s.vertexBuf.Write(0, s.interleavedVertices())

	instanceBuf, err := gpu.NewBuffer(ctx, &gpu.BufferDescriptor{
		Label: "geometry_instances",
		Size:  InstanceCount * instanceStride,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.instanceBuf = instanceBuf
	s.instanceBuf.Write(0, instanceGrid())

	uniformBuf, err := gpu.NewBuffer(ctx, &gpu.BufferDescriptor{
		Label: "geometry_uniforms",
		Size:  geoUniformSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.uniformBuf = uniformBuf

	depth, err := gpu.NewDepthTexture(ctx, uint32(ctx.Width()), uint32(ctx.Height()))
	if err != nil {
		s.Destroy()
		return nil, err
	}
	s.depth = depth

	if ctx.Mock() {
		return s, nil
	}
	if err := s.createPipeline(); err != nil {
		s.Destroy()
		return nil, err
	}
	return s, nil
}

// interleavedVertices packs position and normal streams into the
// (pos3, normal3) vertex layout.
func (s *GeometryStress) interleavedVertices() []byte {
	n := int(s.mesh.VertexCount())
	raw := make([]byte, n*24)
	for i := 0; i < n; i++ {
		off := i * 24
		for j := 0; j < 3; j++ {
			binary.LittleEndian.PutUint32(raw[off+j*4:],
				math.Float32bits(s.mesh.Positions[i*3+j]))
			binary.LittleEndian.PutUint32(raw[off+12+j*4:],
				math.Float32bits(s.mesh.Normals[i*3+j]))
		}
	}
	return raw
}

// instanceGrid lays the instances out on a jittered grid with
// per-instance bounce phase, albedo, and roughness.
func instanceGrid() []byte {
	rng := rand.New(rand.NewSource(7))
	raw := make([]byte, InstanceCount*instanceStride)
	for i := 0; i < InstanceCount; i++ {
		off := i * instanceStride
		put := func(o int, v float32) {
			binary.LittleEndian.PutUint32(raw[off+o:], math.Float32bits(v))
		}
		gx := i % gridSide
		gz := i / gridSide
		put(0, (float32(gx)-gridSide/2)*1.4+(rng.Float32()-0.5)*0.6)
		put(4, 0)
		put(8, (float32(gz)-float32(InstanceCount/gridSide)/2)*1.4+(rng.Float32()-0.5)*0.6)
		put(12, rng.Float32()*2*math32.Pi) // bounce phase
		put(16, 0.3+rng.Float32()*0.7)
		put(20, 0.3+rng.Float32()*0.7)
		put(24, 0.3+rng.Float32()*0.7)
		put(28, 0.2+rng.Float32()*0.6) // roughness
	}
	return raw
}

func (s *GeometryStress) createPipeline() error {
	device := s.ctx.Device()

	uniformLayout, err := device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "geometry_uniform_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageVertex | gputypes.ShaderStageFragment,
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
		return fmt.Errorf("create uniform layout: %w", err)
	}
	s.uniformLayout = uniformLayout

	pipeLayout, err := device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "geometry_pipe_layout",
		BindGroupLayouts: []hal.BindGroupLayout{s.uniformLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}
	s.pipeLayout = pipeLayout

	pipeline, err := device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "geometry_pipeline",
		Layout: s.pipeLayout,
		Vertex: hal.VertexState{
			Module:     s.shader,
			EntryPoint: "vs_main",
			Buffers: []gputypes.VertexBufferLayout{
				{
					ArrayStride: 24,
					StepMode:    gputypes.VertexStepModeVertex,
					Attributes: []gputypes.VertexAttribute{
						{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
						{Format: gputypes.VertexFormatFloat32x3, Offset: 12, ShaderLocation: 1},
					},
				},
			},
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
		DepthStencil: &hal.DepthStencilState{
			Format:            gpu.DepthFormat,
			DepthWriteEnabled: true,
			DepthCompare:      gputypes.CompareFunctionLess,
			StencilFront: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
			StencilBack: hal.StencilFaceState{
				Compare:     gputypes.CompareFunctionAlways,
				FailOp:      hal.StencilOperationKeep,
				DepthFailOp: hal.StencilOperationKeep,
				PassOp:      hal.StencilOperationKeep,
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeBack,
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
		Label:  "geometry_bind",
		Layout: s.uniformLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{
				Buffer: s.uniformBuf.NativeHandle(), Offset: 0, Size: geoUniformSize,
			}},
			{Binding: 1, Resource: gputypes.BufferBinding{
				Buffer: s.instanceBuf.NativeHandle(), Offset: 0, Size: InstanceCount * instanceStride,
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
func (s *GeometryStress) Name() string { return "Geometry Stress" }

// PrimitiveCount describes the workload for the overlay.
func (s *GeometryStress) PrimitiveCount() string {
	return fmt.Sprintf("%d instances x %d tris", InstanceCount, s.mesh.TriangleCount)
}

// Lights returns the current frame's light array.
func (s *GeometryStress) Lights() [LightCount]Light { return s.lights }

// updateLights recomputes the 12 lights: 8 orbit the grid, 4 hold
// fixed corner positions.
func (s *GeometryStress) updateLights(t float32) {
	for i := 0; i < 8; i++ {
		fi := float32(i)
		a := t*(0.4+fi*0.05) + fi*(2*math32.Pi/8)
		s.lights[i] = Light{
			Position:  mgl32.Vec3{math32.Cos(a) * 10, 3 + math32.Sin(t+fi)*2, math32.Sin(a) * 10},
			Color:     mgl32.Vec3{0.5 + 0.5*math32.Sin(fi), 0.5 + 0.5*math32.Cos(fi*1.3), 0.8},
			Intensity: 18,
		}
	}
	corners := [4]mgl32.Vec3{{-12, 6, -12}, {12, 6, -12}, {-12, 6, 12}, {12, 6, 12}}
	for i := 0; i < 4; i++ {
		s.lights[8+i] = Light{
			Position:  corners[i],
			Color:     mgl32.Vec3{1, 0.95, 0.85},
			Intensity: 30,
		}
	}
}

// Update recomputes lights and camera and stages the uniform upload.
func (s *GeometryStress) Update(t, dt float64) {
	s.time = t
	ft := float32(t)
	s.updateLights(ft)
	s.camera.Orbit(ft*0.25, 22, 10)

	var raw [geoUniformSize]byte
	putMat4(raw[0:], s.camera.ViewProj())
	eye := s.camera.Eye()
	putVec4(raw[64:], mgl32.Vec4{eye.X(), eye.Y(), eye.Z(), 0})
	putVec4(raw[80:], mgl32.Vec4{ft, 0, 0, 0})
	for i, l := range s.lights {
		off := 96 + i*32
		putVec4(raw[off:], mgl32.Vec4{l.Position.X(), l.Position.Y(), l.Position.Z(), 0})
		putVec4(raw[off+16:], mgl32.Vec4{l.Color.X(), l.Color.Y(), l.Color.Z(), l.Intensity})
	}
	s.uniformBuf.Write(0, raw[:])
}

// Render encodes the timed instanced draw.
func (s *GeometryStress) Render(f *gpu.Frame) error {
	rp, err := f.TimedRenderPass(gpu.RenderPassConfig{
		Label:      "geometry_pass",
		ColorView:  s.targets.ColorView(),
		ClearColor: gputypes.Color{R: 0.03, G: 0.03, B: 0.06, A: 1},
		DepthView:  s.depth.View(),
	})
	if err != nil {
		return err
	}
	rp.SetPipeline(s.pipeline)
	rp.SetBindGroup(0, s.bindGroup)
	rp.SetVertexBuffer(0, s.vertexBuf)
	rp.Draw(s.mesh.VertexCount(), InstanceCount, 0, 0)
	rp.End()
	return nil
}

// Resize recreates the depth texture at the new dimensions and updates
// the camera projection. Depth textures are recreated, never resized in
// place.
func (s *GeometryStress) Resize(width, height int) {
	s.camera.SetAspect(width, height)
	if s.depth != nil {
		if err := s.depth.Resize(uint32(width), uint32(height)); err != nil {
			s.ctx.NotifyLost()
		}
	}
}

// DepthGenerations reports how many times the depth texture has been
// created.
func (s *GeometryStress) DepthGenerations() int {
	if s.depth == nil {
		return 0
	}
	return s.depth.Generations()
}

// Destroy releases the scene's GPU resources.
func (s *GeometryStress) Destroy() {
	if s.vertexBuf != nil {
		s.vertexBuf.Destroy()
		s.vertexBuf = nil
	}
	if s.instanceBuf != nil {
		s.instanceBuf.Destroy()
		s.instanceBuf = nil
	}
	if s.uniformBuf != nil {
		s.uniformBuf.Destroy()
		s.uniformBuf = nil
	}
	if s.depth != nil {
		s.depth.Destroy()
		s.depth = nil
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
