package main

import (
	"context"
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"smoketester/internal/dut"
	"smoketester/internal/preflight"
	"smoketester/internal/ui"
)

func runPreflightWithUI(ctx context.Context, out io.Writer, title string, defs []*dut.Definition) (preflight.Report, error) {
	events := make(chan preflight.Event, 256)
	reportCh := make(chan preflight.Report, 1)

	go func() {
		reportCh <- preflight.Run(ctx, defs, preflight.ChannelSink{Ch: events})
		close(events)
	}()

	names := make([]string, 0, len(defs))
	for _, def := range defs {
		names = append(names, def.Name())
	}
	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(out), tea.WithContext(ctx))
	_, uiErr := program.Run()
	if uiErr != nil {
		// Drain so the run goroutine is never blocked on a full channel.
		go func() {
			for range events {
			}
		}()
	}
	report := <-reportCh
	return report, uiErr
}
