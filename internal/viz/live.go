package viz

import (
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"math"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
)

// Launcher builds a fresh simulator and its initial state. The live view
// calls it on start and on every reset.
type Launcher func() (*sim.Simulator, *dynamo.State, error)

// Snapshot stores state at a specific time for replay.
type Snapshot struct {
	State  *dynamo.State
	Time   float64
	Energy float64
}

type energySource interface {
	Energy(s *dynamo.State, g *grid.Grid) float64
}

type TickMsg time.Time

// Model steps a simulator on every tick and draws the selected field.
type Model struct {
	title         string
	launch        Launcher
	sim           *sim.Simulator
	err           error
	field         string
	fields        []string
	gauge         [2]int
	speed         int
	width, height int
	canvas        *Canvas
	camera        *Camera
	surface       bool
	running       bool
	energyHistory []float64
	gaugeHistory  []float64
	history       []Snapshot
	playHead      int
	recording     bool
	frames        []*image.Paletted
	showHelp      bool
}

// NewModel launches the first run. field is drawn and gauged at point
// gauge.
func NewModel(title, field string, gauge [2]int, launch Launcher) (Model, error) {
	m := Model{
		title:         title,
		launch:        launch,
		field:         field,
		gauge:         gauge,
		speed:         1,
		width:         width,
		height:        height,
		canvas:        NewCanvas(width, height),
		camera:        NewCamera(),
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
		gaugeHistory:  make([]float64, 0, historyCapacity),
		history:       make([]Snapshot, 0, historyCapacity),
		playHead:      -1,
	}
	if err := m.reset(); err != nil {
		return Model{}, err
	}
	return m, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			if err := m.reset(); err != nil {
				m.err = err
			}
		case "[":
			m.scrub(-1)
		case "]":
			m.scrub(1)
		case "f", "tab":
			m.cycleField()
		case "+", "=":
			m.speed = min(m.speed*2, 64)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "s":
			m.surface = !m.surface
		case "x":
			m.camera.RotateX(0.1)
		case "X":
			m.camera.RotateX(-0.1)
		case "y":
			m.camera.RotateY(0.1)
		case "Y":
			m.camera.RotateY(-0.1)
		case "z":
			m.camera.RotateZ(0.1)
		case "Z":
			m.camera.RotateZ(-0.1)
		case "g":
			if m.recording {
				m.saveGIF()
				m.recording = false
				m.frames = nil
			} else {
				m.recording = true
				m.frames = make([]*image.Paletted, 0)
			}
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			if m.playHead == -1 {
				for i := 0; i < m.speed && !m.sim.Done(); i++ {
					m.step()
				}
			} else {
				m.playHead++
				if m.playHead >= len(m.history) {
					m.playHead = -1
				}
			}
		}
		m.draw()
		if m.recording {
			m.captureFrame()
		}
		return m, tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
	}
	return m, nil
}

func (m *Model) cycleField() {
	if len(m.fields) == 0 {
		return
	}
	for i, f := range m.fields {
		if f == m.field {
			m.field = m.fields[(i+1)%len(m.fields)]
			return
		}
	}
	m.field = m.fields[0]
}

// step advances the simulator one time step and records the result.
func (m *Model) step() {
	if err := m.sim.Step(); err != nil {
		m.err = err
		m.running = false
		return
	}
	m.record()
}

func (m *Model) record() {
	st, t := m.sim.Current(), m.sim.Time()
	energy := 0.0
	if e, ok := m.sim.RHS().(energySource); ok {
		energy = e.Energy(st, m.sim.Grid())
	}
	m.energyHistory = appendRing(m.energyHistory, energy)
	if f := st.Field(m.field); f != nil {
		m.gaugeHistory = appendRing(m.gaugeHistory, f.At(m.gauge[0], m.gauge[1]))
	}
	m.history = append(m.history, Snapshot{State: st, Time: t, Energy: energy})
	if len(m.history) > historyCapacity {
		m.history = m.history[1:]
	}
}

func appendRing(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

// scrub changes the playback position in history.
func (m *Model) scrub(dir int) {
	if m.playHead == -1 {
		if len(m.history) == 0 {
			return
		}
		m.playHead = len(m.history) - 1
		m.running = false
	}
	m.playHead += dir
	if m.playHead < 0 {
		m.playHead = 0
	}
	if m.playHead >= len(m.history) {
		m.playHead = -1
	}
}

// reset relaunches the run from its initial state.
func (m *Model) reset() error {
	s, initial, err := m.launch()
	if err != nil {
		return err
	}
	if err := s.Start(initial); err != nil {
		return err
	}
	m.sim, m.err = s, nil
	m.fields = initial.Names()
	if !initial.Has(m.field) && len(m.fields) > 0 {
		m.field = m.fields[0]
	}
	m.energyHistory = m.energyHistory[:0]
	m.gaugeHistory = m.gaugeHistory[:0]
	m.history = m.history[:0]
	m.playHead = -1
	m.record()
	return nil
}

// shown returns the snapshot on screen: the replay position or the latest.
func (m *Model) shown() (Snapshot, bool) {
	if len(m.history) == 0 {
		return Snapshot{}, false
	}
	if m.playHead >= 0 && m.playHead < len(m.history) {
		return m.history[m.playHead], true
	}
	return m.history[len(m.history)-1], true
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return StatusFailed.Render("FAILED")
	case m.playHead != -1:
		latest := m.history[len(m.history)-1].Time
		return StatusPaused.Render(fmt.Sprintf("REPLAY (%.1fs)", m.history[m.playHead].Time-latest))
	case m.sim.Done():
		return StatusPaused.Render("FINISHED")
	case !m.running:
		return StatusPaused.Render("PAUSED")
	}
	return StatusRunning.Render("RUNNING")
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	snap, _ := m.shown()

	var s strings.Builder
	s.WriteString(HeaderStyle.Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(m.status())
	if m.recording {
		s.WriteString("  " + StatusRecording.Render("REC"))
	}
	s.WriteString("\n\n")

	if len(m.gaugeHistory) > 1 {
		chart := asciigraph.Plot(m.gaugeHistory,
			asciigraph.Height(5), asciigraph.Width(30),
			asciigraph.Caption(fmt.Sprintf("%s at (%d, %d)", m.field, m.gauge[0], m.gauge[1])))
		s.WriteString(GraphStyle.Render(chart) + "\n")
	}

	row := func(label, value string) {
		s.WriteString(MetricLabel.Render(label) + MetricValue.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.2fs", snap.Time))
	row("Step", fmt.Sprintf("%d / %d", stepOf(m), m.sim.Steps()))
	row("dt", fmt.Sprintf("%.4gs x%d", m.sim.Dt(), m.speed))
	row("Field", m.field)
	if snap.State != nil {
		if f := snap.State.Field(m.field); f != nil {
			row("Peak", fmt.Sprintf("%.4g", f.MaxAbs()))
		}
	}
	if len(m.energyHistory) > 0 && m.energyHistory[len(m.energyHistory)-1] != 0 {
		row("Energy", fmt.Sprintf("%.4g", snap.Energy))
		s.WriteString(MetricLabel.Render("") + SparklineChart(m.energyHistory, 30) + "\n")
	}
	s.WriteString("\n" + ProgressBar(float64(stepOf(m))/float64(max(m.sim.Steps(), 1)), 30) + "\n")
	if m.err != nil {
		s.WriteString("\n" + StatusFailed.Render(m.err.Error()) + "\n")
	}
	s.WriteString(KeyHint.Render("SP:pause R:reset Q:quit F:field\n[ ]:replay +/-:speed S:surface\nT:theme G:record ?:help"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, CanvasStyle.Render(m.canvas.String()), PanelStyle.Render(s.String()))
	if m.showHelp {
		return `
╔══════════════════════════════════════╗
║          KEYBOARD SHORTCUTS          ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume             ║
║  R        - Restart the run          ║
║  Q        - Quit                     ║
║  F/Tab    - Cycle displayed field    ║
║  +/-      - Steps per frame          ║
║  [ ]      - Replay recorded steps    ║
║  S        - Toggle 3D surface (2D)   ║
║  x/y/z    - Rotate surface           ║
║  G        - Toggle GIF recording     ║
║  T        - Cycle themes             ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝
` + "\n\n" + mainView
	}
	return mainView
}

// stepOf is the step number of the snapshot on screen.
func stepOf(m Model) int {
	snap, ok := m.shown()
	if !ok || m.sim.Dt() == 0 {
		return 0
	}
	return int(math.Round(snap.Time / m.sim.Dt()))
}

// draw renders the shown snapshot: a profile in 1D, a plan view or a 3D
// surface in 2D.
func (m *Model) draw() {
	m.canvas.Clear()
	snap, ok := m.shown()
	if !ok {
		return
	}
	f := snap.State.Field(m.field)
	if f == nil {
		return
	}
	amp := f.MaxAbs()
	if first := m.history[0].State.Field(m.field); first != nil {
		amp = math.Max(amp, first.MaxAbs())
	}
	if amp == 0 {
		amp = 1
	}

	switch {
	case f.Ny == 1:
		m.canvas.DrawDatum(-amp, amp)
		m.canvas.DrawProfile(f.Data, -amp, amp)
		m.canvas.MarkColumn(m.gauge[0], f.Nx)
	case m.surface:
		Render3D(m.canvas, SurfaceWireframe(f, amp, 24), m.camera)
	default:
		m.canvas.DrawPlan(f, 0.1*amp)
	}
}

func (m *Model) captureFrame() {
	charW, charH := 8, 16
	imgW, imgH := m.width*charW, m.height*charH
	img := image.NewPaletted(image.Rect(0, 0, imgW, imgH), color.Palette{color.Black, color.White})
	dotW, dotH := charW/2, charH/4
	for y := 0; y < m.height*4; y++ {
		for x := 0; x < m.width*2; x++ {
			if !m.canvas.IsSet(x, y) {
				continue
			}
			for py := 0; py < dotH; py++ {
				for px := 0; px < dotW; px++ {
					img.SetColorIndex(x*dotW+px, y*dotH+py, 1)
				}
			}
		}
	}
	m.frames = append(m.frames, img)
}

func (m *Model) saveGIF() {
	if len(m.frames) == 0 {
		return
	}
	anim := gif.GIF{LoopCount: 0}
	for _, frame := range m.frames {
		anim.Image = append(anim.Image, frame)
		anim.Delay = append(anim.Delay, 3)
	}
	f, err := os.Create(strings.ReplaceAll(m.title, " ", "_") + ".gif")
	if err != nil {
		m.err = err
		return
	}
	defer f.Close()
	if err := gif.EncodeAll(f, &anim); err != nil {
		m.err = err
	}
}

// Run shows the live view until the user quits.
func Run(m Model) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
