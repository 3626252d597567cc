package view

import (
	"errors"

	"github.com/charmbracelet/log"

	"github.com/gloam-wm/gloam/internal/compositor"
	"github.com/gloam-wm/gloam/internal/config"
	"github.com/gloam-wm/gloam/internal/daemon"
	"github.com/gloam-wm/gloam/internal/render"
)

// Loop owns the compositor session and every view. All session calls and
// all view mutation happen on the goroutine running Run; the only inputs
// from elsewhere are the settings store and the wake signal.
type Loop struct {
	sess   compositor.Session
	store  *config.Store
	wake   *daemon.Wake
	logger *log.Logger

	views []*View
	done  bool
}

// NewLoop wires a loop to a session and installs it as the session handler.
func NewLoop(sess compositor.Session, store *config.Store, wake *daemon.Wake, logger *log.Logger) *Loop {
	l := &Loop{
		sess:   sess,
		store:  store,
		wake:   wake,
		logger: logger,
	}
	sess.SetHandler(l)
	return l
}

// Run services compositor events and wake signals as either arrives. A
// wake must never wait on the server: a settings update has to land even
// when the compositor is silent, so the two sources are selected over
// rather than serviced in turn. Run returns when the session closes, a
// surface is dismissed, or the wake signal is shut down.
func (l *Loop) Run() error {
	events := l.sess.Events()
	for {
		select {
		case fn, ok := <-events:
			if !ok {
				if err := l.sess.Err(); err != nil && !errors.Is(err, compositor.ErrClosed) {
					return err
				}
				l.logger.Info("compositor session closed")
				return nil
			}
			fn()
			if l.done {
				return nil
			}
		case <-l.wake.Ready():
			l.apply(l.store.Snapshot())
		case <-l.wake.Done():
			return nil
		}
	}
}

// apply repaints every view covered by the settings' target filter. Views
// outside the filter keep whatever they last drew.
func (l *Loop) apply(cfg config.Settings) {
	l.logger.Debug("applying settings", "alpha", cfg.Alpha, "radius", cfg.Radius, "output", cfg.Output)
	for _, v := range l.views {
		if !v.matches(cfg.Output) {
			continue
		}
		v.pending = true
		l.draw(v, cfg)
	}
}

// draw rebuilds a pending view's buffer at its current size and pushes it
// through the attach/commit path. A view that has not seen its first
// configure event stays pending untouched: attaching to an unconfigured
// layer surface is a protocol error that kills the whole session.
func (l *Loop) draw(v *View, cfg config.Settings) {
	if !v.configured || v.width <= 0 || v.height <= 0 {
		return
	}

	buf, err := l.sess.CreateBuffer(v.width, v.height)
	if err != nil {
		l.logger.Error("creating buffer", "output", v.name, "err", err)
		return
	}
	copy(buf.Bytes(), render.Buffer(cfg.Alpha, cfg.Radius, v.width, v.height))

	if v.buffer != nil {
		v.buffer.Destroy()
	}
	v.buffer = buf
	v.surface.Attach(buf)
	v.surface.Commit()
	v.pending = false
}

func (l *Loop) createView(out compositor.Output) (*View, error) {
	info, _ := l.sess.OutputInfo(out)

	surface, err := l.sess.CreateSurface(out)
	if err != nil {
		return nil, err
	}
	viewport, err := l.sess.Viewport(surface)
	if err != nil {
		surface.Destroy()
		return nil, err
	}

	return &View{
		output:   out,
		name:     info.Name,
		width:    info.Width,
		height:   info.Height,
		pending:  true,
		surface:  surface,
		viewport: viewport,
	}, nil
}

// OutputAdded builds a view for a new output. The buffer attach is deferred
// to the first configure event, which carries the authoritative size.
func (l *Loop) OutputAdded(out compositor.Output) {
	v, err := l.createView(out)
	if err != nil {
		l.logger.Error("creating view", "output", out.ID(), "err", err)
		return
	}
	l.logger.Info("output added", "output", v.name, "width", v.width, "height", v.height)
	l.views = append(l.views, v)
}

// OutputChanged rebuilds the output's view wholesale and splices the
// replacement in place, releasing the old view's resources. Geometry
// changes are never patched into a live view.
func (l *Loop) OutputChanged(out compositor.Output) {
	replacement, err := l.createView(out)
	if err != nil {
		l.logger.Error("recreating view", "output", out.ID(), "err", err)
		return
	}
	for i, v := range l.views {
		if v.output.ID() == out.ID() {
			l.logger.Info("output changed", "output", replacement.name)
			v.release()
			l.views[i] = replacement
			return
		}
	}
	// An update for an output we never saw added; treat it as new.
	l.views = append(l.views, replacement)
}

// OutputRemoved drops the output's view and releases its resources.
func (l *Loop) OutputRemoved(out compositor.Output) {
	for i, v := range l.views {
		if v.output.ID() == out.ID() {
			l.logger.Info("output removed", "output", v.name)
			v.release()
			l.views = append(l.views[:i], l.views[i+1:]...)
			return
		}
	}
}

// Configure records the authoritative size for a view and scales its
// viewport. Only a pending view covered by the current target filter gets
// a buffer out of it: a plain resize keeps the existing buffer and lets
// the viewport stretch it, and a view outside the filter stays bare until
// an update that covers it.
func (l *Loop) Configure(s compositor.Surface, width, height int) {
	v := l.findBySurface(s)
	if v == nil {
		return
	}
	v.width, v.height = width, height
	v.configured = true
	v.viewport.SetDestination(width, height)
	if v.pending {
		cfg := l.store.Snapshot()
		if v.matches(cfg.Output) {
			l.draw(v, cfg)
		}
	}
}

// Closed ends the loop: the server dismissing a layer surface means the
// session is no longer worth holding.
func (l *Loop) Closed(s compositor.Surface) {
	l.logger.Info("surface dismissed by server")
	l.done = true
}

func (l *Loop) findBySurface(s compositor.Surface) *View {
	for _, v := range l.views {
		if v.surface == s {
			return v
		}
	}
	return nil
}

// Views returns the live views in creation order.
func (l *Loop) Views() []*View {
	return l.views
}
