// Package view maintains one rendering surface per output and the loop
// that keeps them in sync with the current settings.
package view

import "github.com/gloam-wm/gloam/internal/compositor"

// View is the per-output rendering state. A view starts unconfigured: no
// buffer may touch the surface until the server's first configure event
// acknowledges it. It is pending from creation (and again after a settings
// change) until a buffer has been attached and committed at an
// authoritative size.
type View struct {
	output     compositor.Output
	name       string
	width      int
	height     int
	configured bool
	pending    bool
	buffer     compositor.Buffer
	surface    compositor.Surface
	viewport   compositor.Viewport
}

// Name returns the output name the view covers.
func (v *View) Name() string {
	return v.name
}

// Size returns the view's last known logical size.
func (v *View) Size() (width, height int) {
	return v.width, v.height
}

// matches reports whether the view is covered by a target filter; an empty
// filter matches every output.
func (v *View) matches(target string) bool {
	return target == "" || target == v.name
}

// release frees the protocol resources the view holds. Buffers and
// viewports must be destroyed explicitly; nothing across the protocol
// boundary is finalized for us.
func (v *View) release() {
	if v.buffer != nil {
		v.buffer.Destroy()
		v.buffer = nil
	}
	if v.viewport != nil {
		v.viewport.Destroy()
		v.viewport = nil
	}
	if v.surface != nil {
		v.surface.Destroy()
		v.surface = nil
	}
}
