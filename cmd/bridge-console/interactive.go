package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/wippyai/bridge-runtime/dispatch"
	"github.com/wippyai/bridge-runtime/runtime"
	"github.com/wippyai/bridge-runtime/transport"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	funcStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	typeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	resultStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

type consoleModel struct {
	err      error
	client   *client
	cancel   context.CancelFunc
	result   string
	funcs    []funcMeta
	inputs   []textinput.Model
	selected int
	focusIdx int
	state    modelState
}

type modelState int

const (
	stateSelectFunc modelState = iota
	stateInputArgs
	stateShowResult
)

func newConsoleModel() *consoleModel {
	return &consoleModel{state: stateSelectFunc}
}

type connectedMsg struct {
	err    error
	client *client
	cancel context.CancelFunc
	funcs  []funcMeta
}

type callResultMsg struct {
	err    error
	result string
}

func (m *consoleModel) Init() tea.Cmd {
	return m.connect
}

// connect starts an in-process session and fetches its callable surface.
func (m *consoleModel) connect() tea.Msg {
	rt := runtime.New()
	if err := rt.RegisterBuiltins(); err != nil {
		return connectedMsg{err: err}
	}

	server, local := transport.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		defer server.Close()
		dispatch.NewSession(server, rt).Run(ctx)
	}()

	c := &client{tr: local}
	names, err := c.funcNames()
	if err != nil {
		cancel()
		return connectedMsg{err: err}
	}

	funcs := make([]funcMeta, 0, len(names))
	for _, name := range names {
		meta, err := c.funcInfo(name)
		if err != nil {
			cancel()
			return connectedMsg{err: err}
		}
		funcs = append(funcs, meta)
	}

	return connectedMsg{client: c, cancel: cancel, funcs: funcs}
}

func (m *consoleModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.state == stateInputArgs && msg.String() == "q" {
				break
			}
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit

		case "up", "k":
			if m.state == stateSelectFunc && m.selected > 0 {
				m.selected--
			}

		case "down", "j":
			if m.state == stateSelectFunc && m.selected < len(m.funcs)-1 {
				m.selected++
			}

		case "enter":
			switch m.state {
			case stateSelectFunc:
				m.prepareInputs()
				if len(m.inputs) == 0 {
					return m, m.callFunction
				}
				m.state = stateInputArgs

			case stateInputArgs:
				return m, m.callFunction

			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}

		case "tab":
			if m.state == stateInputArgs && len(m.inputs) > 1 {
				m.inputs[m.focusIdx].Blur()
				m.focusIdx = (m.focusIdx + 1) % len(m.inputs)
				m.inputs[m.focusIdx].Focus()
			}

		case "esc":
			switch m.state {
			case stateInputArgs:
				m.state = stateSelectFunc
				m.inputs = nil
			case stateShowResult:
				m.state = stateSelectFunc
				m.result = ""
				m.err = nil
			}
		}

	case connectedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.client = msg.client
		m.cancel = msg.cancel
		m.funcs = msg.funcs

	case callResultMsg:
		m.result = msg.result
		m.err = msg.err
		m.state = stateShowResult
	}

	if m.state == stateInputArgs {
		var cmds []tea.Cmd
		for i := range m.inputs {
			var cmd tea.Cmd
			m.inputs[i], cmd = m.inputs[i].Update(msg)
			cmds = append(cmds, cmd)
		}
		return m, tea.Batch(cmds...)
	}

	return m, nil
}

func (m *consoleModel) prepareInputs() {
	f := m.funcs[m.selected]
	m.inputs = make([]textinput.Model, len(f.params))
	for i, p := range f.params {
		ti := textinput.New()
		ti.Placeholder = p.typeName
		ti.Prompt = p.name + ": "
		ti.Width = 40
		if i == 0 {
			ti.Focus()
		}
		m.inputs[i] = ti
	}
	m.focusIdx = 0
}

func (m *consoleModel) callFunction() tea.Msg {
	if m.client == nil {
		return callResultMsg{err: fmt.Errorf("session not connected")}
	}

	f := m.funcs[m.selected]
	raw := make([]string, len(m.inputs))
	for i, input := range m.inputs {
		raw[i] = input.Value()
	}

	result, err := m.client.callFun(f, raw)
	if err != nil {
		return callResultMsg{err: err}
	}
	rendered, err := m.client.repr(result)
	if err != nil {
		return callResultMsg{err: err}
	}
	return callResultMsg{result: rendered}
}

func (m *consoleModel) View() string {
	if m.err != nil && m.state != stateShowResult {
		return errorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.funcs) == 0 {
		return "Connecting to session..."
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render("Bridge Console"))
	b.WriteString("\n\n")

	switch m.state {
	case stateSelectFunc:
		b.WriteString("Select a function to call:\n\n")
		for i, f := range m.funcs {
			cursor := "  "
			if i == m.selected {
				cursor = "> "
				b.WriteString(selectedStyle.Render(cursor + m.formatFunc(f)))
			} else {
				b.WriteString(cursor + m.formatFunc(f))
			}
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("↑/↓ select • enter call • q quit"))

	case stateInputArgs:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Calling %s\n\n", funcStyle.Render(f.name)))
		if f.doc != "" {
			b.WriteString(helpStyle.Render(f.doc))
			b.WriteString("\n\n")
		}
		for i, input := range m.inputs {
			b.WriteString(input.View())
			b.WriteString(" ")
			b.WriteString(typeStyle.Render(f.params[i].typeName))
			b.WriteString("\n")
		}
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("tab next field • enter call • esc back"))

	case stateShowResult:
		f := m.funcs[m.selected]
		b.WriteString(fmt.Sprintf("Result of %s:\n\n", funcStyle.Render(f.name)))
		if m.err != nil {
			b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		} else {
			b.WriteString(resultStyle.Render(m.result))
		}
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("enter continue • q quit"))
	}

	return b.String()
}

func (m *consoleModel) formatFunc(f funcMeta) string {
	var params []string
	for _, p := range f.params {
		name := p.name
		if p.variadic {
			name = "..." + name
		}
		params = append(params, name+": "+typeStyle.Render(p.typeName))
	}
	result := ""
	if f.returnType != "" {
		result = " -> " + typeStyle.Render(f.returnType)
	}
	return funcStyle.Render(f.name) + "(" + strings.Join(params, ", ") + ")" + result
}

func runConsole() error {
	p := tea.NewProgram(newConsoleModel(), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
