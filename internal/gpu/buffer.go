package gpu

import (
	"errors"
	"fmt"
	"sync"
	"unsafe"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Buffer errors.
var (
	// ErrBufferDestroyed is returned when operating on a destroyed buffer.
	ErrBufferDestroyed = errors.New("gpu: buffer has been destroyed")

	// ErrBufferAlreadyMapped is returned when a map is requested while one
	// is mapped or pending.
	ErrBufferAlreadyMapped = errors.New("gpu: buffer is already mapped or mapping is pending")

	// ErrBufferNotMapped is returned when accessing unmapped buffer data.
	ErrBufferNotMapped = errors.New("gpu: buffer is not mapped")

	// ErrInvalidBufferSize is returned when a buffer is created with size 0.
	ErrInvalidBufferSize = errors.New("gpu: invalid buffer size")
)

// BufferMapState represents the mapping state of a buffer.
type BufferMapState int

const (
	// BufferMapStateUnmapped means the buffer is not mapped.
	BufferMapStateUnmapped BufferMapState = iota
	// BufferMapStatePending means a map operation is in flight.
	BufferMapStatePending
	// BufferMapStateMapped means the buffer contents are host-visible.
	BufferMapStateMapped
)

// String returns the string representation of BufferMapState.
func (s BufferMapState) String() string {
	switch s {
	case BufferMapStateUnmapped:
		return "Unmapped"
	case BufferMapStatePending:
		return "Pending"
	case BufferMapStateMapped:
		return "Mapped"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// BufferDescriptor describes a buffer to create.
type BufferDescriptor struct {
	// Label is an optional debug name.
	Label string

	// Size is the buffer size in bytes.
	Size uint64

	// Usage specifies how the buffer will be used.
	Usage gputypes.BufferUsage
}

// Buffer wraps a HAL buffer with an asynchronous map state machine.
//
// Readback buffers follow the wgpu pattern: MapAsync initiates the
// mapping, Poll pumps it on later frames, GetMappedRange exposes the
// bytes once mapped, Unmap releases them. On a real device Poll performs
// the staged readback through the queue; in mock mode (nil device) it
// completes immediately with zeroed bytes so the surrounding state
// machines behave identically under test.
//
// Buffer is safe for concurrent use; mutations are mutex-protected.
type Buffer struct {
	mu sync.Mutex

	halBuffer hal.Buffer
	device    hal.Device
	queue     hal.Queue

	descriptor BufferDescriptor

	mapState   BufferMapState
	mappedData []byte
	mapDone    func(ok bool)

	destroyed bool
}

// NewBuffer creates a buffer on the context's device. In mock mode the
// buffer exists host-side only.
func NewBuffer(ctx *Context, desc *BufferDescriptor) (*Buffer, error) {
	if desc.Size == 0 {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBufferSize, desc.Label)
	}

	b := &Buffer{
		device:     ctx.Device(),
		queue:      ctx.Queue(),
		descriptor: *desc,
	}
	if b.device == nil {
		return b, nil
	}

	halBuf, err := b.device.CreateBuffer(&hal.BufferDescriptor{
		Label: desc.Label,
		Size:  desc.Size,
		Usage: desc.Usage,
	})
	if err != nil {
		return nil, fmt.Errorf("create buffer %q: %w", desc.Label, err)
	}
	b.halBuffer = halBuf
	return b, nil
}

// Label returns the buffer's debug label.
func (b *Buffer) Label() string { return b.descriptor.Label }

// Size returns the buffer size in bytes.
func (b *Buffer) Size() uint64 { return b.descriptor.Size }

// NativeHandle returns the backend handle for bind group entries, or
// zero in mock mode.
func (b *Buffer) NativeHandle() uintptr {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.halBuffer == nil {
		return 0
	}
	return b.halBuffer.NativeHandle()
}

// Raw returns the underlying HAL buffer, or nil in mock mode or after
// Destroy.
func (b *Buffer) Raw() hal.Buffer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return nil
	}
	return b.halBuffer
}

// MapState returns the current mapping state.
func (b *Buffer) MapState() BufferMapState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.mapState
}

// Write uploads data at the given byte offset through the queue. A no-op
// in mock mode.
func (b *Buffer) Write(offset uint64, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed || b.halBuffer == nil || b.queue == nil {
		return
	}
	b.queue.WriteBuffer(b.halBuffer, offset, data)
}

// MapAsync initiates an asynchronous read mapping of the whole buffer.
// done is invoked from Poll once the mapping completes or fails.
//
// Returns ErrBufferAlreadyMapped while a previous mapping is pending or
// still mapped; callers that want a drop-newest policy treat that as a
// silent skip.
func (b *Buffer) MapAsync(done func(ok bool)) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.destroyed {
		return ErrBufferDestroyed
	}
	if b.mapState != BufferMapStateUnmapped {
		return ErrBufferAlreadyMapped
	}

	b.mapState = BufferMapStatePending
	b.mapDone = done
	return nil
}

// Poll pumps a pending map operation. Returns true when no mapping is
// pending after the call.
//
// On a real device the staged readback happens here: the queue copies
// the buffer contents into host memory. Failures complete the mapping
// unsuccessfully; they are reported to the callback, never raised.
func (b *Buffer) Poll() bool {
	b.mu.Lock()
	if b.mapState != BufferMapStatePending {
		b.mu.Unlock()
		return true
	}
	if b.destroyed {
		b.finishMapLocked(nil, false)
		return true
	}

	data := make([]byte, b.descriptor.Size)
	if b.halBuffer != nil && b.device != nil {
		mapping, err := b.device.MapBuffer(b.halBuffer, 0, b.descriptor.Size)
		if err != nil {
			slogger().Debug("buffer readback failed", "label", b.descriptor.Label, "error", err)
			b.finishMapLocked(nil, false)
			return true
		}
		copy(data, unsafe.Slice((*byte)(mapping.Ptr), b.descriptor.Size))
		if err := b.device.UnmapBuffer(b.halBuffer); err != nil {
			slogger().Debug("buffer unmap failed", "label", b.descriptor.Label, "error", err)
		}
	}
	b.finishMapLocked(data, true)
	return true
}

// finishMapLocked completes a pending map and invokes the callback
// outside the lock. The caller must hold b.mu; the lock is released.
func (b *Buffer) finishMapLocked(data []byte, ok bool) {
	done := b.mapDone
	b.mapDone = nil
	if ok {
		b.mappedData = data
		b.mapState = BufferMapStateMapped
	} else {
		b.mappedData = nil
		b.mapState = BufferMapStateUnmapped
	}
	b.mu.Unlock()
	if done != nil {
		done(ok)
	}
}

// GetMappedRange returns the mapped bytes. Valid only while mapped; the
// slice must not be used after Unmap.
func (b *Buffer) GetMappedRange() ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.destroyed {
		return nil, ErrBufferDestroyed
	}
	if b.mapState != BufferMapStateMapped {
		return nil, ErrBufferNotMapped
	}
	return b.mappedData, nil
}

// Unmap releases the mapped range. A no-op when not mapped.
func (b *Buffer) Unmap() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.mapState != BufferMapStateMapped {
		return
	}
	b.mapState = BufferMapStateUnmapped
	b.mappedData = nil
}

// Destroy releases the buffer. Idempotent. A pending mapping completes
// unsuccessfully on the next Poll.
func (b *Buffer) Destroy() {
	b.mu.Lock()
	if b.destroyed {
		b.mu.Unlock()
		return
	}
	b.destroyed = true
	device := b.device
	halBuf := b.halBuffer
	b.halBuffer = nil
	b.mappedData = nil
	b.mu.Unlock()

	if device != nil && halBuf != nil {
		device.DestroyBuffer(halBuf)
	}
}
