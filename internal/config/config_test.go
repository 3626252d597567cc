package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gloam-wm/gloam/internal/testutil"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.toml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestLoadFileFrom(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "alpha = 0.7\nradius = 16\noutput = \"DP-1\"\n")
	u, err := LoadFileFrom(path)
	if err != nil {
		t.Fatalf("LoadFileFrom: %v", err)
	}
	if u.Alpha == nil || *u.Alpha != 0.7 {
		t.Errorf("alpha = %v, want 0.7", u.Alpha)
	}
	if u.Radius == nil || *u.Radius != 16 {
		t.Errorf("radius = %v, want 16", u.Radius)
	}
	if u.Output != "DP-1" {
		t.Errorf("output = %q, want DP-1", u.Output)
	}
}

func TestLoadFileFrom_PartialFile(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "radius = 8\n")
	u, err := LoadFileFrom(path)
	if err != nil {
		t.Fatalf("LoadFileFrom: %v", err)
	}
	if u.Alpha != nil {
		t.Errorf("alpha = %v, want absent so the stored value survives", *u.Alpha)
	}
	if u.Radius == nil || *u.Radius != 8 {
		t.Errorf("radius = %v, want 8", u.Radius)
	}
}

func TestLoadFileFrom_Malformed(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, t.TempDir(), "alpha = [not toml")
	if _, err := LoadFileFrom(path); err == nil {
		t.Error("LoadFileFrom accepted malformed TOML")
	}
}

func TestWatch_ReloadsOnWrite(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, "alpha = 0.5\n")

	updates := make(chan Update, 4)
	w, err := Watch(path, testutil.TestLogger(t), func(u Update) { updates <- u })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	writeConfig(t, dir, "alpha = 0.25\n")

	select {
	case u := <-updates:
		if u.Alpha == nil || *u.Alpha != 0.25 {
			t.Errorf("reloaded alpha = %v, want 0.25", u.Alpha)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload observed after config write")
	}
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := writeConfig(t, dir, "alpha = 0.5\n")

	updates := make(chan Update, 4)
	w, err := Watch(path, testutil.TestLogger(t), func(u Update) { updates <- u })
	if err != nil {
		t.Fatalf("Watch: %v", err)
	}
	defer w.Close()

	if err := os.WriteFile(filepath.Join(dir, "unrelated.toml"), []byte("x = 1\n"), 0644); err != nil {
		t.Fatalf("writing unrelated file: %v", err)
	}

	select {
	case u := <-updates:
		t.Errorf("unexpected reload from unrelated file: %+v", u)
	case <-time.After(250 * time.Millisecond):
	}
}
