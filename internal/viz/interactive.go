package viz

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const (
	stateMenu = iota
	stateConfig
	stateSim
)

// Param is an editable numeric setting of a scenario.
type Param struct {
	Name  string
	Value float64
	Step  float64
}

// Choice is one entry of the scenario menu.
type Choice struct {
	Name        string
	Kind        string
	Description string
	Params      []Param
}

// Opener turns a chosen scenario and its edited parameters into a live
// view.
type Opener func(c Choice, params map[string]float64) (Model, error)

type app struct {
	state, cursor int
	choices       []Choice
	open          Opener
	params        []Param
	paramCursor   int
	editing       bool
	editBuf       string
	err           error
	width, height int
	live          Model
}

// NewApp builds the scenario picker.
func NewApp(choices []Choice, open Opener) tea.Model {
	return app{
		state:   stateMenu,
		choices: choices,
		open:    open,
		width:   width,
		height:  height,
	}
}

func (m app) Init() tea.Cmd { return nil }

func (m app) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		return m, nil
	default:
		if m.state == stateSim {
			next, cmd := m.live.Update(msg)
			m.live = next.(Model)
			return m, cmd
		}
	}
	return m, nil
}

func (m app) handleKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch m.state {
	case stateMenu:
		return m.menuKey(msg)
	case stateConfig:
		return m.configKey(msg)
	case stateSim:
		if msg.String() == "esc" {
			m.state = stateConfig
			return m, nil
		}
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	return m, nil
}

func (m app) menuKey(msg tea.KeyMsg) (app, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.choices) == 0 {
			return m, nil
		}
		m.params = append([]Param(nil), m.choices[m.cursor].Params...)
		m.state, m.paramCursor, m.err = stateConfig, 0, nil
	}
	return m, nil
}

func (m app) configKey(msg tea.KeyMsg) (app, tea.Cmd) {
	if m.editing {
		switch msg.String() {
		case "enter":
			if v, err := strconv.ParseFloat(m.editBuf, 64); err == nil {
				m.params[m.paramCursor].Value = v
			}
			m.editing, m.editBuf = false, ""
		case "esc":
			m.editing, m.editBuf = false, ""
		case "backspace":
			if len(m.editBuf) > 0 {
				m.editBuf = m.editBuf[:len(m.editBuf)-1]
			}
		default:
			if len(msg.String()) == 1 {
				c := msg.String()[0]
				if (c >= '0' && c <= '9') || c == '.' || c == '-' || c == 'e' {
					m.editBuf += string(c)
				}
			}
		}
		return m, nil
	}
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q", "esc":
		m.state = stateMenu
	case "up", "k":
		if m.paramCursor > 0 {
			m.paramCursor--
		}
	case "down", "j":
		if m.paramCursor < len(m.params)-1 {
			m.paramCursor++
		}
	case "enter", " ":
		if len(m.params) > 0 {
			m.editing, m.editBuf = true, strconv.FormatFloat(m.params[m.paramCursor].Value, 'g', -1, 64)
		}
	case "left", "h":
		m.nudge(-1)
	case "right", "l":
		m.nudge(1)
	case "s":
		return m.start()
	}
	return m, nil
}

func (m *app) nudge(dir float64) {
	if len(m.params) == 0 {
		return
	}
	p := &m.params[m.paramCursor]
	step := p.Step
	if step == 0 {
		step = 0.1
	}
	p.Value += dir * step
}

func (m app) start() (app, tea.Cmd) {
	values := make(map[string]float64, len(m.params))
	for _, p := range m.params {
		values[p.Name] = p.Value
	}
	live, err := m.open(m.choices[m.cursor], values)
	if err != nil {
		m.err = err
		return m, nil
	}
	m.live, m.state, m.err = live, stateSim, nil
	return m, m.live.Init()
}

func (m app) View() string {
	switch m.state {
	case stateMenu:
		return m.viewMenu()
	case stateConfig:
		return m.viewConfig()
	case stateSim:
		return m.live.View()
	}
	return ""
}

var (
	titleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	subStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	cursorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	accentStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	idleStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	faintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#444455"))
	keyStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

func hints(pairs ...string) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		b.WriteString(keyStyle.Render(pairs[i]) + idleStyle.Render(" "+pairs[i+1]+"  "))
	}
	return b.String()
}

func (m app) viewMenu() string {
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render("COASTAL") + "\n    " + subStyle.Render("finite-difference coastal engine") + "\n    " + subStyle.Render("────────────────────────────────") + "\n\n")
	for i, c := range m.choices {
		label := fmt.Sprintf("%-18s", c.Name)
		desc := c.Kind
		if c.Description != "" {
			desc += ": " + c.Description
		}
		if len(desc) > 40 {
			desc = desc[:37] + "..."
		}
		if i == m.cursor {
			fmt.Fprintf(&b, "    %s %s  %s\n", cursorStyle.Render("▸"), selectedStyle.Render(label), accentStyle.Render(desc))
		} else {
			fmt.Fprintf(&b, "    %s  %s\n", idleStyle.Render("  "+label), faintStyle.Render(desc))
		}
	}
	b.WriteString("\n    " + hints("j/k", "navigate", "enter", "select", "q", "quit") + "\n")
	return b.String()
}

func (m app) viewConfig() string {
	c := m.choices[m.cursor]
	var b strings.Builder
	b.WriteString("\n\n    " + titleStyle.Render(strings.ToUpper(c.Name)) + "\n    " + subStyle.Render(c.Kind+" "+c.Description) + "\n    " + subStyle.Render("────────────────────────────────") + "\n\n")
	for i, p := range m.params {
		val := fmt.Sprintf("%10.4g", p.Value)
		if m.editing && i == m.paramCursor {
			val = fmt.Sprintf("%10s", m.editBuf+"_")
		}
		if i == m.paramCursor {
			fmt.Fprintf(&b, "    %s %s %s\n", cursorStyle.Render("▸"), selectedStyle.Render(fmt.Sprintf("%-12s", p.Name)), accentStyle.Bold(true).Render(val))
		} else {
			fmt.Fprintf(&b, "    %s %s\n", idleStyle.Render(fmt.Sprintf("  %-12s", p.Name)), faintStyle.Render(val))
		}
	}
	if m.err != nil {
		b.WriteString("\n    " + StatusFailed.Render(m.err.Error()) + "\n")
	}
	b.WriteString("\n    " + hints("j/k", "select", "h/l", "adjust", "s", "start", "esc", "back") + "\n")
	return b.String()
}

// RunApp shows the scenario picker until the user quits.
func RunApp(choices []Choice, open Opener) error {
	_, err := tea.NewProgram(NewApp(choices, open), tea.WithAltScreen()).Run()
	return err
}
