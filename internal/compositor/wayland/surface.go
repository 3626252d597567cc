package wayland

import (
	"fmt"
	"math"

	"github.com/gloam-wm/gloam/internal/compositor"
)

// surface is a wl_surface wrapped in a zwlr_layer_surface_v1.
type surface struct {
	sess    *Session
	id      uint32 // wl_surface
	layerID uint32 // zwlr_layer_surface_v1
}

// CreateSurface builds an overlay layer surface on out: sized to the
// output, empty input region so clicks pass through, no keyboard interest,
// exclusive zone -1 so panels are covered too. The surface is committed
// bare; the first buffer attach waits for the configure event.
func (s *Session) CreateSurface(out compositor.Output) (compositor.Surface, error) {
	s.mu.Lock()
	o, ok := s.outputs[out.ID()]
	var outputID uint32
	var width, height int32
	if ok {
		outputID, width, height = o.id, o.width, o.height
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("wayland: unknown output %d", out.ID())
	}

	surfaceID := s.display.AllocateID()
	if err := s.display.SendRequest(s.compositorID, opCompositorCreateSurface, surfaceID); err != nil {
		return nil, fmt.Errorf("creating surface: %w", err)
	}

	// An empty region makes the overlay invisible to input.
	regionID := s.display.AllocateID()
	s.send(s.compositorID, opCompositorCreateRegion, regionID)
	s.send(surfaceID, opSurfaceSetInputRegion, regionID)
	s.send(regionID, opRegionDestroy)

	layerID := s.display.AllocateID()
	if err := s.display.SendRequest(s.layerShellID, opLayerShellGetLayerSurface,
		layerID, surfaceID, outputID, uint32(layerOverlay), layerSurfaceNamespace); err != nil {
		s.send(surfaceID, opSurfaceDestroy)
		return nil, fmt.Errorf("creating layer surface: %w", err)
	}

	surf := &surface{sess: s, id: surfaceID, layerID: layerID}

	// The listeners fire on the wire-reading goroutine: parse there (the
	// event body is only valid during the callback), ack immediately, and
	// hand the rest to the owning goroutine.
	s.display.AddListener(layerID, evLayerConfigure, func(data []byte) {
		serial, width, height, ok := parseConfigure(data)
		if !ok {
			return
		}
		s.send(layerID, opLayerAckConfigure, serial)
		s.post(func() {
			if s.handler != nil {
				s.handler.Configure(surf, int(width), int(height))
			}
		})
	})
	s.display.AddListener(layerID, evLayerClosed, func([]byte) {
		s.post(func() {
			if s.handler != nil {
				s.handler.Closed(surf)
			}
		})
	})

	s.send(layerID, opLayerSetSize, uint32(width), uint32(height))
	s.send(layerID, opLayerSetExclusiveZone, int32(-1))
	s.send(layerID, opLayerSetKeyboardInteractiv, uint32(keyboardInteractivNone))
	s.send(surfaceID, opSurfaceCommit)

	return surf, nil
}

// Viewport implements compositor.Session.
func (s *Session) Viewport(cs compositor.Surface) (compositor.Viewport, error) {
	surf, ok := cs.(*surface)
	if !ok {
		return nil, fmt.Errorf("wayland: foreign surface %T", cs)
	}
	vpID := s.display.AllocateID()
	if err := s.display.SendRequest(s.viewporterID, opViewporterGetViewport, vpID, surf.id); err != nil {
		return nil, fmt.Errorf("creating viewport: %w", err)
	}
	return &viewport{sess: s, id: vpID}, nil
}

// Attach implements compositor.Surface.
func (s *surface) Attach(buf compositor.Buffer) {
	b, ok := buf.(*buffer)
	if !ok {
		return
	}
	s.sess.send(s.id, opSurfaceAttach, b.id, int32(0), int32(0))
	s.sess.send(s.id, opSurfaceDamage, int32(0), int32(0), int32(math.MaxInt32), int32(math.MaxInt32))
}

// Commit implements compositor.Surface.
func (s *surface) Commit() {
	s.sess.send(s.id, opSurfaceCommit)
}

// Destroy implements compositor.Surface.
func (s *surface) Destroy() {
	s.sess.send(s.layerID, opLayerDestroy)
	s.sess.send(s.id, opSurfaceDestroy)
}

// viewport is a wp_viewport handle.
type viewport struct {
	sess *Session
	id   uint32
}

// SetDestination implements compositor.Viewport.
func (v *viewport) SetDestination(width, height int) {
	v.sess.send(v.id, opViewportSetDestination, int32(width), int32(height))
}

// Destroy implements compositor.Viewport.
func (v *viewport) Destroy() {
	v.sess.send(v.id, opViewportDestroy)
}
