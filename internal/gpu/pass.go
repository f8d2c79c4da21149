package gpu

import (
	"fmt"

	"github.com/gogpu/wgpu/hal"
)

// PassState represents the state of a pass encoder.
type PassState int

const (
	// PassStateRecording means the pass is actively recording commands.
	PassStateRecording PassState = iota

	// PassStateEnded means the pass has been ended.
	PassStateEnded
)

// String returns the string representation of PassState.
func (s PassState) String() string {
	switch s {
	case PassStateRecording:
		return "Recording"
	case PassStateEnded:
		return "Ended"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// RenderPass records draw commands for the frame's render pass.
//
// RenderPass is NOT safe for concurrent use; the render loop is the
// single writer. A nil underlying pass (mock mode) keeps the state
// machine intact while recording nothing.
type RenderPass struct {
	corePass hal.RenderPassEncoder
	state    PassState
}

// SetPipeline sets the render pipeline for subsequent draws.
func (p *RenderPass) SetPipeline(pipeline hal.RenderPipeline) {
	if p.state != PassStateRecording || p.corePass == nil || pipeline == nil {
		return
	}
	p.corePass.SetPipeline(pipeline)
}

// SetBindGroup binds a resource group at the given index.
func (p *RenderPass) SetBindGroup(index uint32, group hal.BindGroup) {
	if p.state != PassStateRecording || p.corePass == nil || group == nil {
		return
	}
	p.corePass.SetBindGroup(index, group, nil)
}

// SetVertexBuffer binds a vertex buffer to a slot.
func (p *RenderPass) SetVertexBuffer(slot uint32, buf *Buffer) {
	if p.state != PassStateRecording || p.corePass == nil || buf == nil {
		return
	}
	raw := buf.Raw()
	if raw == nil {
		return
	}
	p.corePass.SetVertexBuffer(slot, raw, 0)
}

// Draw draws instanced primitives.
func (p *RenderPass) Draw(vertexCount, instanceCount, firstVertex, firstInstance uint32) {
	if p.state != PassStateRecording || p.corePass == nil {
		return
	}
	p.corePass.Draw(vertexCount, instanceCount, firstVertex, firstInstance)
}

// End completes the pass. Idempotent.
func (p *RenderPass) End() {
	if p.state == PassStateEnded {
		return
	}
	p.state = PassStateEnded
	if p.corePass != nil {
		p.corePass.End()
	}
}

// ComputePass records dispatches for a frame's compute pass.
//
// Same conventions as RenderPass: single writer, nil-tolerant.
type ComputePass struct {
	corePass hal.ComputePassEncoder
	state    PassState
}

// SetPipeline sets the compute pipeline for subsequent dispatches.
func (p *ComputePass) SetPipeline(pipeline hal.ComputePipeline) {
	if p.state != PassStateRecording || p.corePass == nil || pipeline == nil {
		return
	}
	p.corePass.SetPipeline(pipeline)
}

// SetBindGroup binds a resource group at the given index.
func (p *ComputePass) SetBindGroup(index uint32, group hal.BindGroup) {
	if p.state != PassStateRecording || p.corePass == nil || group == nil {
		return
	}
	p.corePass.SetBindGroup(index, group, nil)
}

// Dispatch dispatches workgroups.
func (p *ComputePass) Dispatch(x, y, z uint32) {
	if p.state != PassStateRecording || p.corePass == nil {
		return
	}
	p.corePass.Dispatch(x, y, z)
}

// End completes the pass. Idempotent.
func (p *ComputePass) End() {
	if p.state == PassStateEnded {
		return
	}
	p.state = PassStateEnded
	if p.corePass != nil {
		p.corePass.End()
	}
}
