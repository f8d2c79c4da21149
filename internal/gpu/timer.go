package gpu

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ElapsedUnavailable is the sentinel reported while no GPU timing sample
// exists, and forever when timestamp queries are unsupported.
const ElapsedUnavailable = -1.0

// timestampSlots is the query count per timed pass: begin and end.
const timestampSlots = 2

// timestampBufSize is the byte size of the resolved timestamp pair
// (two 64-bit tick values).
const timestampBufSize = timestampSlots * 8

// PassTimestampWrites configures a render pass to record a device-side
// clock value at pass entry and pass exit into the timer's query set.
type PassTimestampWrites struct {
	// QuerySet receives the timestamps.
	QuerySet hal.QuerySet

	// BeginIndex and EndIndex are the query slots for pass start/end.
	BeginIndex uint32
	EndIndex   uint32
}

// mockQuerySet stands in for a device query set in mock mode, so the
// timestamp plumbing stays exercisable without a device.
type mockQuerySet struct{}

func (mockQuerySet) Destroy() {}

// Timer measures elapsed device-side time for one render pass per frame
// without serializing the CPU and GPU timelines.
//
// Availability is fixed at construction: creating the timestamp query
// set is the authoritative capability test, and when the backend refuses
// it every method is a no-op and LastElapsedMs stays at the sentinel
// forever, so callers display "N/A" instead of failing.
//
// Readback is asynchronous with a deliberate drop-newest policy: a
// ReadAsync issued while a previous read is still in flight is a silent
// no-op. GPU timing is a diagnostic sample, not a value the score
// depends on frame-exactly; occasional missed samples beat queueing
// unbounded reads.
type Timer struct {
	mu sync.Mutex

	available bool
	device    hal.Device
	querySet  hal.QuerySet
	resolve   *Buffer
	staging   *Buffer

	// tickPeriodNs converts raw timestamp ticks to nanoseconds.
	tickPeriodNs float64

	pending   bool
	elapsedMs float64
}

// NewTimer creates a timer on the context. When the backend lacks
// timestamp-query support the timer is permanently inert.
func NewTimer(ctx *Context) (*Timer, error) {
	t := &Timer{elapsedMs: ElapsedUnavailable, tickPeriodNs: 1}

	if ctx.Mock() {
		if !ctx.SupportsTimestampQuery() {
			slogger().Warn("timestamp queries unavailable, GPU timing disabled")
			return t, nil
		}
		t.querySet = mockQuerySet{}
		if err := t.createBuffers(ctx); err != nil {
			return nil, err
		}
		t.available = true
		return t, nil
	}

	qs, err := ctx.Device().CreateQuerySet(&hal.QuerySetDescriptor{
		Label: "pass_timer",
		Type:  hal.QueryTypeTimestamp,
		Count: timestampSlots,
	})
	if errors.Is(err, hal.ErrTimestampsNotSupported) {
		slogger().Warn("timestamp queries unavailable, GPU timing disabled")
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("create timestamp query set: %w", err)
	}
	t.device = ctx.Device()
	t.querySet = qs
	if p := ctx.Queue().GetTimestampPeriod(); p > 0 {
		t.tickPeriodNs = float64(p)
	}
	if err := t.createBuffers(ctx); err != nil {
		t.device.DestroyQuerySet(qs)
		return nil, err
	}
	t.available = true
	return t, nil
}

// createBuffers allocates the resolve target and the host-visible
// staging buffer the readback maps.
func (t *Timer) createBuffers(ctx *Context) error {
	resolve, err := NewBuffer(ctx, &BufferDescriptor{
		Label: "timer_resolve",
		Size:  timestampBufSize,
		Usage: gputypes.BufferUsageQueryResolve | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return err
	}
	staging, err := NewBuffer(ctx, &BufferDescriptor{
		Label: "timer_staging",
		Size:  timestampBufSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		resolve.Destroy()
		return err
	}
	t.resolve = resolve
	t.staging = staging
	return nil
}

// Supported reports whether GPU pass timing works on this device.
func (t *Timer) Supported() bool { return t.available }

// PassTimestampWrites returns the begin/end marker configuration for the
// frame's single timed pass, or nil when timing is unavailable. Exactly
// one render pass per frame may carry these markers.
func (t *Timer) PassTimestampWrites() *PassTimestampWrites {
	if !t.available {
		return nil
	}
	return &PassTimestampWrites{QuerySet: t.querySet, BeginIndex: 0, EndIndex: 1}
}

// Resolve records the query-set resolve into the resolve buffer and the
// copy into the host-visible staging buffer. Must be recorded after the
// timed pass closes and in the same submission, so the timestamps exist
// before the resolve executes. Called once per frame by Frame.Submit.
func (t *Timer) Resolve(f *Frame) {
	if !t.available {
		return
	}
	f.ResolveQuerySet(t.querySet, 0, timestampSlots, t.resolve)
	f.CopyBufferToBuffer(t.resolve, t.staging, timestampBufSize)
}

// ReadAsync initiates the asynchronous readback of the staging buffer.
// done, if non-nil, receives the elapsed milliseconds once Poll observes
// a valid sample, a frame or more later; the value also lands in
// LastElapsedMs. While a previous read is pending, ReadAsync is a silent
// no-op (drop-newest). Mapping failures are swallowed: timing degrades
// to the last known value rather than propagating an error into the
// render loop.
func (t *Timer) ReadAsync(done func(ms float64)) {
	if !t.available {
		return
	}
	t.mu.Lock()
	if t.pending {
		t.mu.Unlock()
		return
	}
	t.pending = true
	t.mu.Unlock()

	err := t.staging.MapAsync(func(ok bool) {
		defer func() {
			t.mu.Lock()
			t.pending = false
			t.mu.Unlock()
		}()
		if !ok {
			return
		}
		data, err := t.staging.GetMappedRange()
		if err != nil || len(data) < timestampBufSize {
			t.staging.Unmap()
			return
		}
		begin := binary.LittleEndian.Uint64(data[0:8])
		end := binary.LittleEndian.Uint64(data[8:16])
		t.staging.Unmap()
		if end <= begin {
			return
		}
		ms := elapsedMsFromTicks(begin, end, t.tickPeriodNs)
		t.mu.Lock()
		t.elapsedMs = ms
		t.mu.Unlock()
		if done != nil {
			done(ms)
		}
	})
	if err != nil {
		t.mu.Lock()
		t.pending = false
		t.mu.Unlock()
	}
}

// elapsedMsFromTicks converts a begin/end timestamp pair from raw query
// ticks to milliseconds using the queue's tick period in nanoseconds.
func elapsedMsFromTicks(begin, end uint64, tickPeriodNs float64) float64 {
	return float64(end-begin) * tickPeriodNs / 1e6
}

// Poll pumps a pending readback. Called once per frame by the runner.
func (t *Timer) Poll() {
	if !t.available {
		return
	}
	t.staging.Poll()
}

// Pending reports whether a readback is in flight.
func (t *Timer) Pending() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}

// LastElapsedMs returns the most recently read GPU pass time in
// milliseconds, or ElapsedUnavailable before the first sample lands.
func (t *Timer) LastElapsedMs() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.elapsedMs
}

// Destroy releases the query set and buffers. Safe mid-readback: a
// pending mapping completes unsuccessfully and is swallowed.
func (t *Timer) Destroy() {
	if t.device != nil && t.querySet != nil {
		t.device.DestroyQuerySet(t.querySet)
	}
	t.querySet = nil
	if t.resolve != nil {
		t.resolve.Destroy()
		t.resolve = nil
	}
	if t.staging != nil {
		t.staging.Destroy()
		t.staging = nil
	}
	t.available = false
}
