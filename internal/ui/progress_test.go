package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"smoketester/internal/preflight"
)

func TestProgressModelTracksEvents(t *testing.T) {
	events := make(chan preflight.Event)
	model := NewProgressModel("pre-flight", []string{"nrf52840-dk", "pico"}, events)
	m := model.(*progressModel)

	steps := []preflight.Event{
		{DUT: "nrf52840-dk", Stage: preflight.StageOpen, Status: preflight.StatusWorking},
		{DUT: "nrf52840-dk", Stage: preflight.StageOpen, Status: preflight.StatusDone},
		{DUT: "pico", Stage: preflight.StageOpen, Status: preflight.StatusError, Err: errors.New("probe is busy")},
		{DUT: "unknown", Status: preflight.StatusDone},
		{Status: preflight.StatusDone},
	}
	for _, ev := range steps {
		m.Update(eventMsg(ev))
	}

	if m.items[0].status != "done" || m.items[1].status != "error" {
		t.Fatalf("statuses = %q, %q", m.items[0].status, m.items[1].status)
	}
	if m.summary != "1 ok, 1 failed" {
		t.Fatalf("summary = %q", m.summary)
	}
	view := m.View()
	for _, want := range []string{"nrf52840-dk", "pico", "probe is busy", "1 ok, 1 failed"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view does not contain %q:\n%s", want, view)
		}
	}

	_, cmd := m.Update(doneMsg{})
	if !m.done || cmd == nil {
		t.Fatalf("doneMsg did not finish the model")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatalf("doneMsg should quit the program")
	}
	if !strings.HasPrefix(ansiStrip(m.View()), "done: ") {
		t.Fatalf("finished view should start with done:\n%s", m.View())
	}
}

func TestStatusLabel(t *testing.T) {
	cases := []struct {
		stage  preflight.Stage
		status preflight.Status
		want   string
	}{
		{"", preflight.StatusQueued, "queued"},
		{preflight.StageBinary, preflight.StatusWorking, "checking"},
		{preflight.StageOpen, preflight.StatusWorking, "opening"},
		{preflight.StageOpen, preflight.StatusSkipped, "skipped"},
		{"", "bogus", ""},
	}
	for _, tc := range cases {
		if got := statusLabel(tc.stage, tc.status); got != tc.want {
			t.Errorf("statusLabel(%q, %q) = %q, want %q", tc.stage, tc.status, got, tc.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	cases := []struct {
		in    string
		width int
		want  string
	}{
		{"pico", 10, "pico"},
		{"nrf52840-dk-bench-3", 10, "nrf5284..."},
		{"nrf52840", 3, "nrf"},
		{"nrf52840", 0, "nrf52840"},
	}
	for _, tc := range cases {
		if got := truncate(tc.in, tc.width); got != tc.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tc.in, tc.width, got, tc.want)
		}
	}
}

func ansiStrip(s string) string {
	var b strings.Builder
	inEsc := false
	for _, r := range s {
		switch {
		case r == 0x1b:
			inEsc = true
		case inEsc && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z'):
			inEsc = false
		case !inEsc:
			b.WriteRune(r)
		}
	}
	return b.String()
}
