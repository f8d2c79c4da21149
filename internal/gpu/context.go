package gpu

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"
)

// Context errors.
var (
	// ErrNoGPU is returned when no usable GPU adapter exists. This is the
	// only condition that refuses to start a benchmark run.
	ErrNoGPU = errors.New("gpu: no usable GPU adapter available")

	// ErrNotInitialized is returned when operating on a closed or
	// never-initialized context.
	ErrNotInitialized = errors.New("gpu: context not initialized")

	// ErrDeviceLost is returned once the device has been reported lost.
	ErrDeviceLost = errors.New("gpu: device lost")

	// ErrNoHALProvider is returned when an external device provider does
	// not expose HAL handles.
	ErrNoHALProvider = errors.New("gpu: provider does not expose HAL device/queue")
)

// ContextOptions configures GPU context creation.
type ContextOptions struct {
	// Width and Height are the render target dimensions in pixels.
	Width  int
	Height int

	// TimestampQueries decides timer availability for mock contexts. On a
	// real device the timer probes the backend directly: query-set
	// creation either succeeds or reports timestamps unsupported, and
	// timing degrades to "N/A" in the latter case.
	TimestampQueries bool
}

// Context owns the GPU instance, device, and queue for a benchmark run,
// along with the capability flags the workloads depend on. It is the
// explicit replacement for ambient device globals: every component
// receives the context it renders with.
//
// A Context with a nil device runs in mock mode: every GPU call becomes
// a validated no-op. Mock mode backs the deterministic host-side tests,
// mirroring the nil-encoder fallback used elsewhere in the gogpu stack.
type Context struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	adapterName string
	width       int
	height      int

	timestampCapable bool
	externalDevice   bool
	initialized      bool

	// inFlight is the previous frame's submission, retired by the next
	// BeginFrame once the queue reports its index completed.
	inFlight *pendingSubmit

	lost atomic.Bool
}

// NewContext creates a GPU context by selecting an adapter (discrete
// preferred, then integrated), opening a device, and retrieving its
// queue. Returns ErrNoGPU when no adapter is available.
func NewContext(opts ContextOptions) (*Context, error) {
	c := &Context{
		width:            opts.Width,
		height:           opts.Height,
		timestampCapable: opts.TimestampQueries,
	}

	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("%w: vulkan backend not registered", ErrNoGPU)
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("%w: create instance: %w", ErrNoGPU, err)
	}
	c.instance = instance

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("%w: no adapters enumerated", ErrNoGPU)
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		for i := range adapters {
			if adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
				selected = &adapters[i]
				break
			}
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}
	c.device = openDev.Device
	c.queue = openDev.Queue
	c.adapterName = selected.Info.Name
	c.initialized = true

	slogger().Info("gpu context initialized",
		slog.String("adapter", c.adapterName),
		slog.Bool("timestamp_queries", c.timestampCapable))
	return c, nil
}

// NewContextFromProvider creates a context around a shared device owned
// by a host application (e.g. a gogpu.App). The provider must expose the
// underlying HAL handles; the context never destroys resources it does
// not own.
func NewContextFromProvider(p gpucontext.DeviceProvider, opts ContextOptions) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := any(p).(halProvider)
	if !ok {
		return nil, ErrNoHALProvider
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("%w: HalDevice is not hal.Device", ErrNoHALProvider)
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("%w: HalQueue is not hal.Queue", ErrNoHALProvider)
	}

	c := &Context{
		device:           device,
		queue:            queue,
		adapterName:      "external",
		width:            opts.Width,
		height:           opts.Height,
		timestampCapable: opts.TimestampQueries,
		externalDevice:   true,
		initialized:      true,
	}
	slogger().Info("gpu context using shared device")
	return c, nil
}

// NewMockContext creates a deviceless context for tests. All GPU
// operations become no-ops; buffers simulate async mapping.
func NewMockContext(width, height int, timestampQueries bool) *Context {
	return &Context{
		adapterName:      "mock",
		width:            width,
		height:           height,
		timestampCapable: timestampQueries,
		initialized:      true,
	}
}

// Device returns the HAL device, or nil in mock mode.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the HAL queue, or nil in mock mode.
func (c *Context) Queue() hal.Queue { return c.queue }

// AdapterName returns the selected adapter's name ("mock" in mock mode).
func (c *Context) AdapterName() string { return c.adapterName }

// Width returns the current render target width in pixels.
func (c *Context) Width() int { return c.width }

// Height returns the current render target height in pixels.
func (c *Context) Height() int { return c.height }

// SupportsTimestampQuery reports the negotiated timestamp-query flag.
// Mock timers key availability off this; real timers probe the backend.
func (c *Context) SupportsTimestampQuery() bool { return c.timestampCapable }

// Mock reports whether the context runs without a device.
func (c *Context) Mock() bool { return c.device == nil }

// Resize records new render target dimensions. Scene resources that
// depend on the framebuffer size (depth textures) are recreated by their
// owners via the scene Resize hooks.
func (c *Context) Resize(width, height int) {
	c.width = width
	c.height = height
}

// NotifyLost marks the device as lost. Subsequent frames fail with
// ErrDeviceLost; in-flight readbacks are allowed to fail silently.
func (c *Context) NotifyLost() {
	if c.lost.CompareAndSwap(false, true) {
		slogger().Warn("gpu device lost")
	}
}

// Lost reports whether the device has been marked lost.
func (c *Context) Lost() bool { return c.lost.Load() }

// Close releases the device and instance when the context owns them.
// Safe to call multiple times.
func (c *Context) Close() {
	if !c.initialized {
		return
	}
	if c.inFlight != nil && c.device != nil {
		c.device.FreeCommandBuffer(c.inFlight.cmdBuf)
		c.inFlight = nil
	}
	if !c.externalDevice {
		if c.device != nil {
			c.device.Destroy()
		}
		if c.instance != nil {
			c.instance.Destroy()
		}
	}
	c.device = nil
	c.queue = nil
	c.instance = nil
	c.initialized = false
}
