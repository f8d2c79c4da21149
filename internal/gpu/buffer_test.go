package gpu

import (
	"errors"
	"testing"
)

func TestBufferCreateZeroSize(t *testing.T) {
	ctx := NewMockContext(64, 64, false)
	_, err := NewBuffer(ctx, &BufferDescriptor{Label: "empty", Size: 0})
	if !errors.Is(err, ErrInvalidBufferSize) {
		t.Fatalf("expected ErrInvalidBufferSize, got %v", err)
	}
}

func TestBufferMapLifecycle(t *testing.T) {
	ctx := NewMockContext(64, 64, false)
	buf, err := NewBuffer(ctx, &BufferDescriptor{Label: "staging", Size: 16})
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	defer buf.Destroy()

	if got := buf.MapState(); got != BufferMapStateUnmapped {
		t.Fatalf("initial state = %v, want Unmapped", got)
	}

	var completed, ok bool
	if err := buf.MapAsync(func(success bool) {
		completed = true
		ok = success
	}); err != nil {
		t.Fatalf("MapAsync failed: %v", err)
	}
	if got := buf.MapState(); got != BufferMapStatePending {
		t.Fatalf("state after MapAsync = %v, want Pending", got)
	}
	if completed {
		t.Fatal("callback fired before Poll")
	}

	buf.Poll()
	if !completed || !ok {
		t.Fatalf("completed=%v ok=%v, want true/true", completed, ok)
	}
	if got := buf.MapState(); got != BufferMapStateMapped {
		t.Fatalf("state after Poll = %v, want Mapped", got)
	}

	data, err := buf.GetMappedRange()
	if err != nil {
		t.Fatalf("GetMappedRange failed: %v", err)
	}
	if len(data) != 16 {
		t.Fatalf("mapped range length = %d, want 16", len(data))
	}

	buf.Unmap()
	if got := buf.MapState(); got != BufferMapStateUnmapped {
		t.Fatalf("state after Unmap = %v, want Unmapped", got)
	}
	if _, err := buf.GetMappedRange(); !errors.Is(err, ErrBufferNotMapped) {
		t.Fatalf("expected ErrBufferNotMapped after Unmap, got %v", err)
	}
}

func TestBufferMapWhilePending(t *testing.T) {
	ctx := NewMockContext(64, 64, false)
	buf, err := NewBuffer(ctx, &BufferDescriptor{Label: "staging", Size: 16})
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	defer buf.Destroy()

	if err := buf.MapAsync(func(bool) {}); err != nil {
		t.Fatalf("first MapAsync failed: %v", err)
	}
	if err := buf.MapAsync(func(bool) {}); !errors.Is(err, ErrBufferAlreadyMapped) {
		t.Fatalf("second MapAsync = %v, want ErrBufferAlreadyMapped", err)
	}

	buf.Poll()
	// Still mapped, not unmapped, so a new map attempt must keep failing.
	if err := buf.MapAsync(func(bool) {}); !errors.Is(err, ErrBufferAlreadyMapped) {
		t.Fatalf("MapAsync while mapped = %v, want ErrBufferAlreadyMapped", err)
	}
}

func TestBufferDestroyPendingMap(t *testing.T) {
	ctx := NewMockContext(64, 64, false)
	buf, err := NewBuffer(ctx, &BufferDescriptor{Label: "staging", Size: 16})
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}

	var completed, ok bool
	if err := buf.MapAsync(func(success bool) {
		completed = true
		ok = success
	}); err != nil {
		t.Fatalf("MapAsync failed: %v", err)
	}

	buf.Destroy()
	buf.Poll()
	if !completed {
		t.Fatal("pending map never completed after Destroy")
	}
	if ok {
		t.Fatal("map on destroyed buffer reported success")
	}

	buf.Destroy() // idempotent
	if err := buf.MapAsync(func(bool) {}); !errors.Is(err, ErrBufferDestroyed) {
		t.Fatalf("MapAsync on destroyed buffer = %v, want ErrBufferDestroyed", err)
	}
}

func TestBufferPollWithoutPending(t *testing.T) {
	ctx := NewMockContext(64, 64, false)
	buf, err := NewBuffer(ctx, &BufferDescriptor{Label: "staging", Size: 16})
	if err != nil {
		t.Fatalf("NewBuffer failed: %v", err)
	}
	defer buf.Destroy()

	if !buf.Poll() {
		t.Fatal("Poll with no pending map should report done")
	}
}
