package main

import (
	"context"
	stderrors "errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/sherpa-wasm/audio"
	"github.com/wippyai/sherpa-wasm/settings"
	"github.com/wippyai/sherpa-wasm/transcribe"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	finalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	partialStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB")).
			Italic(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type modelState int

const (
	stateLoading modelState = iota
	stateListening
	statePaused
	stateSaveClip
)

type interactiveModel struct {
	ctx      context.Context
	err      error
	settings *settings.Settings
	app      *app
	mic      *micSession
	statusCh chan string
	status   string
	update   transcribe.Update
	input    textinput.Model
	state    modelState
}

type statusMsg string

type loadedMsg struct {
	err error
	app *app
}

type chunkMsg struct {
	chunk audio.Chunk
	ok    bool
}

type savedMsg struct {
	err  error
	path string
}

func newInteractiveModel(ctx context.Context, s *settings.Settings) *interactiveModel {
	return &interactiveModel{
		ctx:      ctx,
		settings: s,
		statusCh: make(chan string, 8),
		state:    stateLoading,
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.loadEngine, m.waitStatus)
}

func (m *interactiveModel) loadEngine() tea.Msg {
	a, err := startApp(m.ctx, m.settings, func(s string) {
		select {
		case m.statusCh <- s:
		default:
		}
	})
	return loadedMsg{app: a, err: err}
}

func (m *interactiveModel) waitStatus() tea.Msg {
	select {
	case s := <-m.statusCh:
		return statusMsg(s)
	case <-m.ctx.Done():
		return nil
	}
}

func (m *interactiveModel) waitChunk() tea.Msg {
	c, ok := <-m.mic.capturer.Chunks()
	return chunkMsg{chunk: c, ok: ok}
}

func (m *interactiveModel) saveClip(path string) tea.Cmd {
	clip := m.mic.clip
	return func() tea.Msg {
		return savedMsg{path: path, err: clip.SaveAs(path)}
	}
}

func (m *interactiveModel) shutdown() {
	ctx := context.WithoutCancel(m.ctx)
	if m.mic != nil {
		_ = m.mic.capturer.Stop()
		_ = m.mic.stream.Close(ctx)
	}
	if m.app != nil {
		m.app.close(ctx)
	}
	m.mic, m.app = nil, nil
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.state == stateSaveClip {
			return m.updateSave(msg)
		}
		switch msg.String() {
		case "ctrl+c", "q":
			m.shutdown()
			return m, tea.Quit

		case " ":
			switch m.state {
			case stateListening:
				m.state = statePaused
				m.status = "Paused"
			case statePaused:
				m.state = stateListening
				m.status = "Listening"
			}

		case "c":
			if m.mic != nil {
				m.mic.stream.Clear()
				m.update.Finals = nil
			}

		case "r":
			if m.mic != nil {
				m.err = m.mic.stream.Reset(m.ctx)
				m.mic.clip.Reset()
				m.update = transcribe.Update{}
			}

		case "s":
			if m.mic != nil && m.mic.clip.Len() > 0 {
				m.input = textinput.New()
				m.input.Prompt = "Save clip as: "
				m.input.SetValue("clip-" + m.mic.clip.Created.Format("20060102-150405") + ".wav")
				m.input.Width = 40
				m.input.Focus()
				m.state = stateSaveClip
			}
		}

	case statusMsg:
		if msg != "" {
			m.status = string(msg)
		}
		if m.state == stateLoading {
			return m, m.waitStatus
		}

	case loadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.app = msg.app
		m.mic = newMicSession(m.app)
		if m.mic.clip == nil {
			m.mic.clip = audio.NewClip(m.mic.rate)
		}
		if err := m.mic.capturer.Start(m.ctx); err != nil {
			m.err = err
			return m, nil
		}
		m.state = stateListening
		m.status = "Listening"
		return m, m.waitChunk

	case chunkMsg:
		if !msg.ok {
			m.shutdown()
			return m, tea.Quit
		}
		if m.mic == nil {
			return m, nil
		}
		if m.state == statePaused {
			return m, m.waitChunk
		}
		u, err := m.mic.push(m.ctx, msg.chunk)
		if err != nil {
			m.err = err
		} else {
			m.update = u
		}
		return m, m.waitChunk

	case savedMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.status = "Saved " + msg.path
		}
	}

	return m, nil
}

func (m *interactiveModel) updateSave(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.state = stateListening
		return m, nil
	case "enter":
		name := strings.TrimSpace(m.input.Value())
		m.state = stateListening
		if name == "" {
			return m, nil
		}
		dir := m.settings.Audio.ClipDir
		if dir == "" {
			dir = "."
		}
		return m, m.saveClip(filepath.Join(dir, filepath.Base(name)))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("sherpa-wasm"))
	b.WriteString(" ")
	b.WriteString(statusStyle.Render(m.status))
	b.WriteString("\n\n")

	if m.err != nil {
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
	}

	switch m.state {
	case stateLoading:
		if m.err == nil {
			b.WriteString("Loading engine...\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("q quit"))

	default:
		i := 0
		for _, f := range m.update.Finals {
			if f == "" {
				continue
			}
			b.WriteString(finalStyle.Render(fmt.Sprintf("%d: %s", i, f)))
			b.WriteString("\n")
			i++
		}
		if m.update.Partial != "" {
			b.WriteString(partialStyle.Render(fmt.Sprintf("%d: %s", i, m.update.Partial)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		if m.state == stateSaveClip {
			b.WriteString(m.input.View())
			b.WriteString("\n\n")
			b.WriteString(helpStyle.Render("enter save • esc cancel"))
		} else {
			if m.mic != nil {
				fmt.Fprintf(&b, "%s\n\n", helpStyle.Render(fmt.Sprintf("clip %.1fs", m.mic.clip.Duration().Seconds())))
			}
			b.WriteString(helpStyle.Render("space pause • c clear • r reset • s save clip • q quit"))
		}
	}

	return b.String()
}

func runInteractive(ctx context.Context, s *settings.Settings) error {
	m := newInteractiveModel(ctx, s)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	m.shutdown()
	if stderrors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
