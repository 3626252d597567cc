package view

import (
	"testing"
	"time"

	"github.com/gloam-wm/gloam/internal/compositor/comptest"
	"github.com/gloam-wm/gloam/internal/config"
	"github.com/gloam-wm/gloam/internal/daemon"
	"github.com/gloam-wm/gloam/internal/testutil"
)

func newTestLoop(t *testing.T) (*Loop, *comptest.Session, *config.Store, *daemon.Wake) {
	t.Helper()
	sess := comptest.New()
	store := config.NewStore()
	wake := daemon.NewWake()
	l := NewLoop(sess, store, wake, testutil.TestLogger(t))
	return l, sess, store, wake
}

// dispatch drains n queued session events on the test goroutine.
func dispatch(t *testing.T, sess *comptest.Session, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		if err := sess.Dispatch(); err != nil {
			t.Fatalf("dispatch %d: %v", i, err)
		}
	}
}

func alphaOf(t *testing.T, v *View) byte {
	t.Helper()
	buf, ok := v.buffer.(*comptest.Buffer)
	if !ok || buf == nil {
		t.Fatal("view has no buffer")
	}
	return buf.Bytes()[3]
}

func applyUpdate(store *config.Store, u config.Update) config.Settings {
	store.Apply(u)
	return store.Snapshot()
}

func TestLoop_FirstConfigureAttachesBuffer(t *testing.T) {
	t.Parallel()

	l, sess, store, _ := newTestLoop(t)
	a := 0.3
	store.Apply(config.Update{Alpha: &a})

	sess.AddOutput(1, "DP-1", 1920, 1080)
	dispatch(t, sess, 1) // output added: view exists, nothing attached yet

	views := l.Views()
	if len(views) != 1 {
		t.Fatalf("views = %d, want 1", len(views))
	}
	if !views[0].pending {
		t.Error("view not pending before first configure")
	}
	if views[0].configured {
		t.Error("view marked configured before the server said so")
	}
	if views[0].buffer != nil {
		t.Error("buffer attached before first configure")
	}

	dispatch(t, sess, 1) // configure: buffer built at configure size

	v := views[0]
	if v.pending || !v.configured {
		t.Error("view should be configured and drawn after first configure")
	}
	if w, h := v.Size(); w != 1920 || h != 1080 {
		t.Errorf("size = %dx%d, want 1920x1080", w, h)
	}
	if got, want := alphaOf(t, v), byte(a*255); got != want {
		t.Errorf("buffer alpha = %d, want %d", got, want)
	}

	surfaces := sess.Surfaces()
	if len(surfaces) != 1 || surfaces[0].Commits() == 0 || surfaces[0].Attached() == nil {
		t.Error("buffer was not attached and committed")
	}
}

func TestLoop_NoDrawBeforeFirstConfigure(t *testing.T) {
	t.Parallel()

	l, sess, store, _ := newTestLoop(t)
	a := 0.8

	sess.AddOutput(1, "DP-1", 1920, 1080)
	dispatch(t, sess, 1) // only the added event; configure still queued

	// A settings change landing in this window must not touch the surface.
	l.apply(applyUpdate(store, config.Update{Alpha: &a}))

	surf := sess.Surfaces()[0]
	if surf.Attached() != nil || surf.Commits() != 0 {
		t.Fatal("buffer reached a never-configured surface")
	}
	if !l.Views()[0].pending {
		t.Error("view should stay pending until configured")
	}

	dispatch(t, sess, 1) // the deferred draw happens on first configure

	if surf.Attached() == nil {
		t.Fatal("no draw after first configure")
	}
	if got, want := surf.Attached().Bytes()[3], byte(a*255); got != want {
		t.Errorf("buffer alpha = %d, want %d", got, want)
	}
}

func TestLoop_ResizeWithoutRedraw(t *testing.T) {
	t.Parallel()

	l, sess, _, _ := newTestLoop(t)
	sess.AddOutput(1, "DP-1", 1920, 1080)
	dispatch(t, sess, 2)

	surf := sess.Surfaces()[0]
	commits := surf.Commits()
	buf := surf.Attached()

	sess.Configure(surf, 2560, 1440)
	dispatch(t, sess, 1)

	v := l.Views()[0]
	if w, h := v.Size(); w != 2560 || h != 1440 {
		t.Errorf("size = %dx%d, want the new geometry", w, h)
	}
	if surf.Commits() != commits {
		t.Error("plain resize must not recommit; the viewport rescales the buffer")
	}
	if surf.Attached() != buf {
		t.Error("plain resize must keep the existing buffer")
	}
}

func TestLoop_Hotplug(t *testing.T) {
	t.Parallel()

	l, sess, _, _ := newTestLoop(t)

	sess.AddOutput(1, "A", 1920, 1080)
	dispatch(t, sess, 2)
	if got := len(l.Views()); got != 1 {
		t.Fatalf("after add A: views = %d, want 1", got)
	}

	sess.AddOutput(2, "B", 1280, 720)
	dispatch(t, sess, 2)
	if got := len(l.Views()); got != 2 {
		t.Fatalf("after add B: views = %d, want 2", got)
	}

	aBuffer := l.Views()[0].buffer.(*comptest.Buffer)
	sess.RemoveOutput(1)
	dispatch(t, sess, 1)

	views := l.Views()
	if len(views) != 1 || views[0].Name() != "B" {
		t.Fatalf("after remove A: views = %d, want only B", len(views))
	}
	if !aBuffer.Destroyed() {
		t.Error("removed view's buffer was not released")
	}

	// Geometry change: the view is rebuilt wholesale, never patched.
	bBuffer := views[0].buffer.(*comptest.Buffer)
	sess.UpdateOutput(2, "B", 3840, 2160)
	dispatch(t, sess, 2) // changed event + replacement's configure

	views = l.Views()
	if len(views) != 1 {
		t.Fatalf("after update B: views = %d, want 1", len(views))
	}
	if w, h := views[0].Size(); w != 3840 || h != 2160 {
		t.Errorf("after update B: size = %dx%d, want 3840x2160", w, h)
	}
	if !bBuffer.Destroyed() {
		t.Error("replaced view's buffer was not released")
	}

	surfaces := sess.Surfaces()
	if len(surfaces) != 3 {
		t.Fatalf("surfaces created = %d, want 3 (A, B, B replacement)", len(surfaces))
	}
	if !surfaces[0].Destroyed() || !surfaces[1].Destroyed() {
		t.Error("dead views' surfaces were not destroyed")
	}
}

func TestLoop_ApplyHonorsTargetFilter(t *testing.T) {
	t.Parallel()

	l, sess, _, _ := newTestLoop(t)
	sess.AddOutput(1, "A", 100, 100)
	sess.AddOutput(2, "B", 100, 100)
	dispatch(t, sess, 4)

	viewA, viewB := l.Views()[0], l.Views()[1]
	oldA := viewA.buffer.(*comptest.Buffer)

	hi := 0.8
	l.apply(config.Settings{Alpha: hi, Output: "B"})

	if viewA.buffer.(*comptest.Buffer) != oldA {
		t.Error("non-targeted view was repainted")
	}
	if got, want := alphaOf(t, viewB), byte(hi*255); got != want {
		t.Errorf("targeted view alpha = %d, want %d", got, want)
	}

	lo := 0.6
	l.apply(config.Settings{Alpha: lo})
	for _, v := range l.Views() {
		if got, want := alphaOf(t, v), byte(lo*255); got != want {
			t.Errorf("view %s alpha = %d, want %d after untargeted update", v.Name(), got, want)
		}
	}
	if !oldA.Destroyed() {
		t.Error("repainted view's previous buffer was not released")
	}
}

func TestLoop_FirstDrawHonorsTargetFilter(t *testing.T) {
	t.Parallel()

	l, sess, store, _ := newTestLoop(t)
	hi := 0.8
	store.Apply(config.Update{Alpha: &hi, Output: "A"})

	sess.AddOutput(1, "A", 100, 100)
	sess.AddOutput(2, "B", 100, 100)
	dispatch(t, sess, 4)

	surfA, surfB := sess.Surfaces()[0], sess.Surfaces()[1]
	if surfA.Attached() == nil {
		t.Fatal("targeted output was not dimmed on first configure")
	}
	if got, want := surfA.Attached().Bytes()[3], byte(hi*255); got != want {
		t.Errorf("targeted alpha = %d, want %d", got, want)
	}
	if surfB.Attached() != nil {
		t.Error("non-targeted output was dimmed on first configure")
	}

	// An untargeted update then covers the bare view too.
	lo := 0.6
	l.apply(applyUpdate(store, config.Update{Alpha: &lo}))
	if surfB.Attached() == nil {
		t.Fatal("untargeted update left the bare view bare")
	}
	if got, want := surfB.Attached().Bytes()[3], byte(lo*255); got != want {
		t.Errorf("alpha = %d, want %d after untargeted update", got, want)
	}
}

func TestLoop_WakeAppliesWithoutCompositorTraffic(t *testing.T) {
	t.Parallel()

	l, sess, store, wake := newTestLoop(t)
	a := 0.3
	store.Apply(config.Update{Alpha: &a})
	sess.AddOutput(1, "DP-1", 1920, 1080)

	done := make(chan error, 1)
	go func() { done <- l.Run() }()

	surf := waitForDraw(t, sess, byte(a*255))

	// The server is now silent. A forwarded update plus a wake alone must
	// repaint; the loop may not wait for further compositor traffic.
	b := 0.8
	store.Apply(config.Update{Alpha: &b})
	wake.Signal()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if buf := surf.Attached(); buf != nil && buf.Bytes()[3] == byte(b*255) {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("update never applied while the compositor was silent")
		}
		time.Sleep(5 * time.Millisecond)
	}

	wake.Close()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after wake close")
	}
}

// waitForDraw blocks until one surface exists and carries a buffer at the
// wanted alpha.
func waitForDraw(t *testing.T, sess *comptest.Session, want byte) *comptest.Surface {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for {
		if surfaces := sess.Surfaces(); len(surfaces) == 1 {
			if buf := surfaces[0].Attached(); buf != nil && buf.Bytes()[3] == want {
				return surfaces[0]
			}
		}
		if time.Now().After(deadline) {
			t.Fatal("loop never drew")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestLoop_WakeBurstObservesOnlyFinalState(t *testing.T) {
	t.Parallel()

	l, sess, store, wake := newTestLoop(t)

	// Two rapid updates land before the loop runs at all; no buffer may
	// ever carry the intermediate state.
	a1, a2 := 0.2, 0.7
	store.Apply(config.Update{Alpha: &a1})
	wake.Signal()
	store.Apply(config.Update{Alpha: &a2})
	wake.Signal()

	sess.AddOutput(1, "DP-1", 640, 480)
	sess.Shutdown() // backlog stays deliverable, then the loop exits

	if err := l.Run(); err != nil {
		t.Fatalf("Run = %v", err)
	}

	want := byte(a2 * 255)
	surf := sess.Surfaces()[0]
	if buf := surf.Attached(); buf == nil || buf.Bytes()[3] != want {
		t.Fatal("final merged state was not rendered")
	}
	for i, buf := range sess.Buffers() {
		if got := buf.Bytes()[3]; got != want {
			t.Errorf("buffer %d alpha = %d, want %d; an intermediate state leaked", i, got, want)
		}
	}
}

func TestLoop_WakeCloseStopsRun(t *testing.T) {
	t.Parallel()

	l, _, _, wake := newTestLoop(t)

	done := make(chan error, 1)
	go func() { done <- l.Run() }()
	wake.Close()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after wake close")
	}
}

func TestLoop_ExitsWhenSessionCloses(t *testing.T) {
	t.Parallel()

	l, sess, _, _ := newTestLoop(t)
	sess.Shutdown()

	if err := l.Run(); err != nil {
		t.Errorf("Run after session close = %v, want nil", err)
	}
}

func TestLoop_ExitsWhenSurfaceDismissed(t *testing.T) {
	t.Parallel()

	l, sess, _, _ := newTestLoop(t)
	sess.AddOutput(1, "DP-1", 800, 600)
	dispatch(t, sess, 2)
	sess.CloseSurface(sess.Surfaces()[0])

	done := make(chan error, 1)
	go func() { done <- l.Run() }()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Run = %v, want nil", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not exit after surface dismissal")
	}
}
