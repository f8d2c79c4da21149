package gpu

import (
	"errors"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Frame errors.
var (
	// ErrTimedPassUsed is returned when a second timed pass is requested
	// in one frame. Exactly one render pass per frame may be timed.
	ErrTimedPassUsed = errors.New("gpu: timed pass already encoded this frame")

	// ErrFrameSubmitted is returned when encoding continues on a frame
	// that has already been submitted.
	ErrFrameSubmitted = errors.New("gpu: frame already submitted")
)

// pendingSubmit tracks the previous frame's in-flight work so its
// resources are released only after the device confirms completion.
type pendingSubmit struct {
	cmdBuf hal.CommandBuffer
	index  uint64
}

// Frame encodes one benchmark frame: at most one untimed compute pass
// followed by exactly one (optionally timed) render pass, then a single
// submission. GPU work is fire-and-forget: Submit does not wait for the
// device. The previous frame's command buffer is retired at the start of
// the next frame, once its submission index completes.
//
// In mock mode every encoding call validates its state machine and
// otherwise does nothing, so scene and runner logic is fully exercisable
// without a device.
type Frame struct {
	ctx     *Context
	timer   *Timer
	encoder hal.CommandEncoder

	timedPass bool
	submitted bool
}

// retireTimeout bounds the wait for the previous frame's submission.
const retireTimeout = 5 * time.Second

// retirePollInterval is the sleep between completion polls while waiting
// on the previous frame.
const retirePollInterval = 100 * time.Microsecond

// BeginFrame starts encoding a new frame. The previous frame's
// submission, if any, is retired first. Returns ErrDeviceLost once the
// context has been marked lost.
func BeginFrame(ctx *Context, timer *Timer) (*Frame, error) {
	if ctx.Lost() {
		return nil, ErrDeviceLost
	}

	f := &Frame{ctx: ctx, timer: timer}
	if ctx.Mock() {
		return f, nil
	}

	if err := ctx.retirePrevious(); err != nil {
		ctx.NotifyLost()
		return nil, err
	}

	encoder, err := ctx.Device().CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "frame_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("frame"); err != nil {
		return nil, fmt.Errorf("begin encoding: %w", err)
	}
	f.encoder = encoder
	return f, nil
}

// retirePrevious waits for the prior submission to complete and frees
// its command buffer. Called from BeginFrame so the wait overlaps the
// display interval instead of stalling the frame that submitted the
// work. A submission that never completes within retireTimeout is
// treated as a lost device.
func (c *Context) retirePrevious() error {
	p := c.inFlight
	if p == nil {
		return nil
	}
	c.inFlight = nil
	deadline := time.Now().Add(retireTimeout)
	for c.queue.PollCompleted() < p.index {
		if time.Now().After(deadline) {
			c.device.FreeCommandBuffer(p.cmdBuf)
			return fmt.Errorf("%w: submission %d not completed within %v", ErrDeviceLost, p.index, retireTimeout)
		}
		time.Sleep(retirePollInterval)
	}
	c.device.FreeCommandBuffer(p.cmdBuf)
	return nil
}

// ComputePass begins an untimed compute pass. The pass must be ended
// before the render pass begins.
func (f *Frame) ComputePass(label string) (*ComputePass, error) {
	if f.submitted {
		return nil, ErrFrameSubmitted
	}
	cp := &ComputePass{}
	if f.encoder != nil {
		cp.corePass = f.encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: label})
	}
	return cp, nil
}

// RenderPassConfig describes the frame's render pass attachments.
// Views are nil in mock mode.
type RenderPassConfig struct {
	Label      string
	ColorView  hal.TextureView
	ClearColor gputypes.Color
	DepthView  hal.TextureView
}

// TimedRenderPass begins the frame's single timed render pass, bracketed
// by the timer's begin/end timestamp markers when timing is available.
// A second call in the same frame returns ErrTimedPassUsed: the
// single-pass-per-frame contract is the caller's to respect and this
// guard makes violations loud.
func (f *Frame) TimedRenderPass(cfg RenderPassConfig) (*RenderPass, error) {
	if f.submitted {
		return nil, ErrFrameSubmitted
	}
	if f.timedPass {
		return nil, ErrTimedPassUsed
	}
	f.timedPass = true

	rp := &RenderPass{}
	if f.encoder != nil {
		desc := &hal.RenderPassDescriptor{
			Label: cfg.Label,
			ColorAttachments: []hal.RenderPassColorAttachment{{
				View:       cfg.ColorView,
				LoadOp:     gputypes.LoadOpClear,
				StoreOp:    gputypes.StoreOpStore,
				ClearValue: cfg.ClearColor,
			}},
		}
		if f.timer != nil {
			if w := f.timer.PassTimestampWrites(); w != nil {
				begin, end := w.BeginIndex, w.EndIndex
				desc.TimestampWrites = &hal.RenderPassTimestampWrites{
					QuerySet:                  w.QuerySet,
					BeginningOfPassWriteIndex: &begin,
					EndOfPassWriteIndex:       &end,
				}
			}
		}
		if cfg.DepthView != nil {
			desc.DepthStencilAttachment = &hal.RenderPassDepthStencilAttachment{
				View:              cfg.DepthView,
				DepthLoadOp:       gputypes.LoadOpClear,
				DepthStoreOp:      gputypes.StoreOpDiscard,
				DepthClearValue:   1.0,
				StencilLoadOp:     gputypes.LoadOpClear,
				StencilStoreOp:    gputypes.StoreOpDiscard,
				StencilClearValue: 0,
			}
		}
		rp.corePass = f.encoder.BeginRenderPass(desc)
	}
	return rp, nil
}

// ResolveQuerySet records a resolve of query results into dst. Must be
// recorded after the pass that writes the queries has ended.
func (f *Frame) ResolveQuerySet(qs hal.QuerySet, first, count uint32, dst *Buffer) {
	if f.encoder == nil || qs == nil || dst == nil {
		return
	}
	dstRaw := dst.Raw()
	if dstRaw == nil {
		return
	}
	f.encoder.ResolveQuerySet(qs, first, count, dstRaw, 0)
}

// CopyBufferToBuffer records a buffer copy. Used by the timer's resolve
// step; 4-byte alignment is the caller's responsibility.
func (f *Frame) CopyBufferToBuffer(src, dst *Buffer, size uint64) {
	if f.encoder == nil || src == nil || dst == nil {
		return
	}
	srcRaw, dstRaw := src.Raw(), dst.Raw()
	if srcRaw == nil || dstRaw == nil {
		return
	}
	f.encoder.CopyBufferToBuffer(srcRaw, dstRaw, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: size},
	})
}

// Submit resolves the timer (if a timed pass was encoded), finishes
// encoding, and submits once. It never waits for the GPU; the
// submission is retired by the next frame's BeginFrame.
func (f *Frame) Submit() error {
	if f.submitted {
		return ErrFrameSubmitted
	}
	f.submitted = true

	if f.timer != nil && f.timedPass {
		f.timer.Resolve(f)
	}

	if f.encoder == nil {
		return nil
	}

	cmdBuf, err := f.encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("end encoding: %w", err)
	}
	index, err := f.ctx.Queue().Submit([]hal.CommandBuffer{cmdBuf})
	if err != nil {
		f.ctx.Device().FreeCommandBuffer(cmdBuf)
		f.ctx.NotifyLost()
		return fmt.Errorf("%w: submit: %v", ErrDeviceLost, err)
	}
	f.ctx.inFlight = &pendingSubmit{cmdBuf: cmdBuf, index: index}
	return nil
}

// TimedPassEncoded reports whether the frame's timed render pass has
// been encoded. Used by tests of the single-pass contract.
func (f *Frame) TimedPassEncoded() bool { return f.timedPass }
