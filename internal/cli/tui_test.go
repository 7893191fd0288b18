package cli

import (
	"context"
	"io"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/moonlayout/pkg/frame"
)

func newTestStepModel(t *testing.T) StepModel {
	t.Helper()
	f, w, err := loadScene(menuScene)
	if err != nil {
		t.Fatal(err)
	}
	c := New(io.Discard, LogInfo)
	r, err := c.newRunner(f, w, menuScene, frame.Options{})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(r.Close)
	return NewStepModel(context.Background(), r, "test")
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m StepModel, msg tea.Msg) (StepModel, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	sm, ok := next.(StepModel)
	if !ok {
		t.Fatalf("Update() returned %T, want StepModel", next)
	}
	return sm, cmd
}

func TestStepModelInit(t *testing.T) {
	m := newTestStepModel(t)
	cmd := m.Init()
	if cmd == nil {
		t.Fatal("Init() returned nil command")
	}
	m, _ = update(t, m, cmd())
	if m.Frames != 1 {
		t.Errorf("Frames = %d, want 1", m.Frames)
	}
	if m.Last == nil || m.Last.Tick != 1 {
		t.Fatalf("Last = %+v, want tick 1", m.Last)
	}
}

func TestStepModelKeys(t *testing.T) {
	m := newTestStepModel(t)
	m, _ = update(t, m, stepMsg{})

	m, _ = update(t, m, key(" "))
	m, _ = update(t, m, key("n"))
	if m.Frames != 3 {
		t.Errorf("Frames = %d, want 3", m.Frames)
	}
	if m.Last.Tick != 3 {
		t.Errorf("Last.Tick = %d, want 3", m.Last.Tick)
	}

	// menu.toml has two cameras with stacks.
	m, _ = update(t, m, key("tab"))
	if m.Camera != 1 {
		t.Errorf("Camera = %d, want 1", m.Camera)
	}
	m, _ = update(t, m, key("c"))
	if m.Camera != 0 {
		t.Errorf("Camera = %d after wrap, want 0", m.Camera)
	}

	_, cmd := update(t, m, key("q"))
	if cmd == nil {
		t.Fatal("q returned no command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("q did not quit")
	}
}

func TestStepModelPlay(t *testing.T) {
	m := newTestStepModel(t)
	m, _ = update(t, m, stepMsg{})

	m, cmd := update(t, m, key("p"))
	if !m.Playing || cmd == nil {
		t.Fatalf("Playing = %v, cmd = %v, want playing with a tick", m.Playing, cmd)
	}
	m, cmd = update(t, m, tickMsg{})
	if m.Frames != 2 || cmd == nil {
		t.Errorf("after tick: Frames = %d, cmd nil = %v, want 2 and a next tick", m.Frames, cmd == nil)
	}

	m, _ = update(t, m, key("p"))
	if m.Playing {
		t.Error("p did not pause")
	}
	m, cmd = update(t, m, tickMsg{})
	if m.Frames != 2 || cmd != nil {
		t.Errorf("tick while paused: Frames = %d, want 2 and no command", m.Frames)
	}
}

func TestStepModelView(t *testing.T) {
	m := newTestStepModel(t)
	if v := m.View(); !strings.Contains(v, "test") {
		t.Errorf("View() before first frame = %q, want title", v)
	}

	m, _ = update(t, m, stepMsg{})
	v := m.View()
	for _, want := range []string{"camera main", "panel", "title", "badge", "[1/2]"} {
		if !strings.Contains(v, want) {
			t.Errorf("View() missing %q", want)
		}
	}
}

func TestStepModelCancelled(t *testing.T) {
	m := newTestStepModel(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m.ctx = ctx

	m, _ = update(t, m, stepMsg{})
	if m.Err == nil {
		t.Fatal("Err = nil, want context error")
	}
	if m.Frames != 0 {
		t.Errorf("Frames = %d, want 0", m.Frames)
	}
}
