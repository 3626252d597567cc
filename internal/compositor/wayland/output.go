package wayland

import (
	"fmt"

	wlturbo "github.com/bnema/wlturbo"
)

// output tracks one wl_output binding. Size comes from the current mode;
// without an xdg-output binding that is the best logical-size approximation
// available, and the viewport scales the buffer to whatever the layer
// surface is actually configured to. Fields are guarded by the session
// lock: the pump's listeners write them while the owning goroutine reads
// through OutputInfo.
type output struct {
	sess       *Session
	id         uint32 // object ID
	globalName uint32
	version    uint32
	name       string
	width      int32
	height     int32
	ready      bool // initial done event seen
}

// ID implements compositor.Output.
func (o *output) ID() uint32 { return o.id }

// supportsRelease reports whether the bound version carries the release
// request, which wl_output only grew in version 3.
func (o *output) supportsRelease() bool {
	return o.version >= wlOutputReleaseSinceVersion
}

// bindOutput runs from the registry handler, both at startup and on
// hotplug. It stays on the dispatching goroutine so the listeners are
// registered before the next wire message is read.
func (s *Session) bindOutput(registry *wlturbo.Registry, name, version uint32) {
	if version > wlOutputNameMinVersion {
		version = wlOutputNameMinVersion
	}

	id, err := registry.BindID(name, "wl_output", version)
	if err != nil {
		s.logger.Error("binding wl_output", "global", name, "err", err)
		return
	}

	out := &output{
		sess:       s,
		id:         id,
		globalName: name,
		version:    version,
		// Placeholder until (and unless) the name event arrives; wl_output
		// only reports names from version 4.
		name: fmt.Sprintf("wl_output-%d", name),
	}
	s.mu.Lock()
	s.outputs[id] = out
	s.byGlobal[name] = out
	s.mu.Unlock()

	s.display.AddListener(id, evOutputMode, out.handleMode)
	s.display.AddListener(id, evOutputName, out.handleName)
	s.display.AddListener(id, evOutputDone, out.handleDone)
}

func (o *output) handleMode(data []byte) {
	flags, width, height, ok := parseMode(data)
	if !ok || flags&outputModeFlagCurrent == 0 {
		return
	}
	o.sess.mu.Lock()
	o.width, o.height = width, height
	o.sess.mu.Unlock()
}

func (o *output) handleName(data []byte) {
	name, ok := parseString(data)
	if !ok {
		return
	}
	o.sess.mu.Lock()
	o.name = name
	o.sess.mu.Unlock()
}

// handleDone is the atomicity point: the first one announces the output,
// later ones mean its state changed.
func (o *output) handleDone([]byte) {
	s := o.sess
	s.mu.Lock()
	first := !o.ready
	o.ready = true
	name, width, height := o.name, o.width, o.height
	s.mu.Unlock()

	if first {
		s.logger.Debug("output ready", "name", name, "width", width, "height", height)
		s.post(func() {
			if s.handler != nil {
				s.handler.OutputAdded(o)
			}
		})
		return
	}
	s.post(func() {
		if s.handler != nil {
			s.handler.OutputChanged(o)
		}
	})
}

// handleGlobalRemove watches registry global_remove for output unplugs.
func (s *Session) handleGlobalRemove(data []byte) {
	name, ok := parseUint(data)
	if !ok {
		return
	}
	s.mu.Lock()
	out, ok := s.byGlobal[name]
	if ok {
		delete(s.byGlobal, name)
		delete(s.outputs, out.id)
	}
	s.mu.Unlock()
	if !ok {
		return
	}
	if out.supportsRelease() {
		s.send(out.id, opOutputRelease)
	}
	s.post(func() {
		if s.handler != nil {
			s.handler.OutputRemoved(out)
		}
	})
}
