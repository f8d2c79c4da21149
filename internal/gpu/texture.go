// Copyright 2026 The gogpu Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// ColorFormat is the render target color format.
const ColorFormat = gputypes.TextureFormatBGRA8Unorm

// DepthFormat is the depth/stencil attachment format.
const DepthFormat = gputypes.TextureFormatDepth24PlusStencil8

// RenderTargets owns the offscreen color attachment frames render into.
// Resize drops and recreates the texture at the new dimensions.
type RenderTargets struct {
	ctx *Context

	colorTex  hal.Texture
	colorView hal.TextureView

	width  uint32
	height uint32
}

// NewRenderTargets creates the color attachment sized to the context.
// In mock mode the view stays nil and passes encode against a nil
// target.
func NewRenderTargets(ctx *Context) (*RenderTargets, error) {
	rt := &RenderTargets{ctx: ctx}
	if err := rt.create(uint32(ctx.Width()), uint32(ctx.Height())); err != nil {
		return nil, err
	}
	return rt, nil
}

// ColorView returns the color attachment view.
func (rt *RenderTargets) ColorView() hal.TextureView { return rt.colorView }

// Width returns the current target width in pixels.
func (rt *RenderTargets) Width() uint32 { return rt.width }

// Height returns the current target height in pixels.
func (rt *RenderTargets) Height() uint32 { return rt.height }

// Resize recreates the attachment at the new dimensions. A resize to
// the current size is a no-op.
func (rt *RenderTargets) Resize(width, height uint32) error {
	if width == rt.width && height == rt.height {
		return nil
	}
	rt.destroy()
	return rt.create(width, height)
}

func (rt *RenderTargets) create(width, height uint32) error {
	rt.width = width
	rt.height = height
	if rt.ctx.Mock() {
		return nil
	}

	device := rt.ctx.Device()
	colorTex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: "target_color",
		Size: hal.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        ColorFormat,
		Usage:         gputypes.TextureUsageRenderAttachment | gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("create color texture: %w", err)
	}
	rt.colorTex = colorTex

	colorView, err := device.CreateTextureView(colorTex, &hal.TextureViewDescriptor{
		Label: "target_color_view",
	})
	if err != nil {
		rt.destroy()
		return fmt.Errorf("create color texture view: %w", err)
	}
	rt.colorView = colorView
	return nil
}

func (rt *RenderTargets) destroy() {
	if rt.ctx.Mock() {
		return
	}
	device := rt.ctx.Device()
	if rt.colorView != nil {
		device.DestroyTextureView(rt.colorView)
		rt.colorView = nil
	}
	if rt.colorTex != nil {
		device.DestroyTexture(rt.colorTex)
		rt.colorTex = nil
	}
}

// Destroy releases the attachment.
func (rt *RenderTargets) Destroy() {
	rt.destroy()
}

// DepthTexture is a depth/stencil attachment owned by a scene. Resize
// destroys the texture and creates a fresh one at the new dimensions;
// depth textures are never resized in place.
type DepthTexture struct {
	ctx *Context

	tex  hal.Texture
	view hal.TextureView

	width       uint32
	height      uint32
	generations int
}

// NewDepthTexture creates a depth/stencil texture at the given size.
func NewDepthTexture(ctx *Context, width, height uint32) (*DepthTexture, error) {
	dt := &DepthTexture{ctx: ctx}
	if err := dt.create(width, height); err != nil {
		return nil, err
	}
	return dt, nil
}

// View returns the depth attachment view, nil in mock mode.
func (dt *DepthTexture) View() hal.TextureView { return dt.view }

// Width returns the current width in pixels.
func (dt *DepthTexture) Width() uint32 { return dt.width }

// Height returns the current height in pixels.
func (dt *DepthTexture) Height() uint32 { return dt.height }

// Generations counts how many times the texture has been created.
func (dt *DepthTexture) Generations() int { return dt.generations }

// Resize recreates the texture at the new dimensions. A resize to the
// current size is a no-op.
func (dt *DepthTexture) Resize(width, height uint32) error {
	if width == dt.width && height == dt.height {
		return nil
	}
	dt.destroy()
	return dt.create(width, height)
}

func (dt *DepthTexture) create(width, height uint32) error {
	dt.width = width
	dt.height = height
	dt.generations++
	if dt.ctx.Mock() {
		return nil
	}

	device := dt.ctx.Device()
	tex, err := device.CreateTexture(&hal.TextureDescriptor{
		Label: "depth",
		Size: hal.Extent3D{
			Width:              width,
			Height:             height,
			DepthOrArrayLayers: 1,
		},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        DepthFormat,
		Usage:         gputypes.TextureUsageRenderAttachment,
	})
	if err != nil {
		return fmt.Errorf("create depth texture: %w", err)
	}
	dt.tex = tex

	view, err := device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "depth_view",
	})
	if err != nil {
		dt.destroy()
		return fmt.Errorf("create depth texture view: %w", err)
	}
	dt.view = view
	return nil
}

func (dt *DepthTexture) destroy() {
	if dt.ctx.Mock() {
		return
	}
	device := dt.ctx.Device()
	if dt.view != nil {
		device.DestroyTextureView(dt.view)
		dt.view = nil
	}
	if dt.tex != nil {
		device.DestroyTexture(dt.tex)
		dt.tex = nil
	}
}

// Destroy releases the texture.
func (dt *DepthTexture) Destroy() {
	dt.destroy()
}
