package viz

import (
	"math"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"github.com/san-kum/coastal/internal/boundary"
	"github.com/san-kum/coastal/internal/dynamo"
	"github.com/san-kum/coastal/internal/grid"
	"github.com/san-kum/coastal/internal/physics"
	"github.com/san-kum/coastal/internal/sim"
)

func TestCanvasDrawProfile(t *testing.T) {
	c := NewCanvas(2, 1)
	c.DrawProfile([]float64{0, 1}, 0, 1)
	if !c.IsSet(0, 3) || !c.IsSet(3, 0) {
		t.Errorf("profile should run from bottom left to top right:\n%s", c.String())
	}
	if c.IsSet(0, 0) || c.IsSet(3, 3) {
		t.Error("opposite corners should be clear")
	}

	c.Clear()
	c.DrawProfile([]float64{5, 5, 5}, -1, 1)
	for x := 0; x < 4; x++ {
		if !c.IsSet(x, 0) {
			t.Errorf("clipped value should sit on the top row, x=%d", x)
		}
	}
	if c.IsSet(-1, 0) || c.IsSet(4, 0) {
		t.Error("out-of-canvas sub-pixels are never set")
	}
}

func TestCanvasDatumAndMarker(t *testing.T) {
	c := NewCanvas(4, 2)
	c.DrawDatum(-1, 1)
	// zero sits on sub-pixel row round(7/2) = 4
	for x := 0; x < 8; x++ {
		if c.IsSet(x, 4) != (x%4 == 0) {
			t.Errorf("datum dot at x=%d: %v", x, c.IsSet(x, 4))
		}
	}

	c.Clear()
	c.DrawDatum(1, 2)
	if c.String() != NewCanvas(4, 2).String() {
		t.Error("no datum when zero is out of range")
	}

	c.MarkColumn(10, 11)
	for y := 5; y < 8; y++ {
		if !c.IsSet(7, y) {
			t.Errorf("marker missing at y=%d", y)
		}
	}
	if c.IsSet(7, 4) {
		t.Error("marker too tall")
	}
}

func TestCanvasDrawPlan(t *testing.T) {
	f := dynamo.NewField(2, 2)
	f.Set(1, 1, 1)
	c := NewCanvas(1, 1)
	c.DrawPlan(f, 0.5)
	// (1, 1) is the top right of the plan
	if !c.IsSet(1, 0) {
		t.Errorf("top right should be lit:\n%s", c.String())
	}
	if c.IsSet(0, 3) {
		t.Error("bottom left should be clear")
	}
}

func TestSurfaceWireframe(t *testing.T) {
	tests := []struct {
		name      string
		nx, ny    int
		lines     int
		wantEdges int
	}{
		{"full", 4, 3, 10, 4*2 + 3*3},
		{"thinned", 9, 2, 3, 2*2 + 3*1},
		{"line", 5, 1, 10, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := SurfaceWireframe(dynamo.NewField(tt.nx, tt.ny), 1, tt.lines)
			if len(w.Edges) != tt.wantEdges {
				t.Errorf("edges = %d, want %d", len(w.Edges), tt.wantEdges)
			}
		})
	}
}

func TestRender3D(t *testing.T) {
	f := dynamo.NewField(5, 5)
	f.Set(2, 2, 1)
	c := NewCanvas(20, 10)
	Render3D(c, SurfaceWireframe(f, 1, 5), NewCamera())
	if !strings.ContainsFunc(c.String(), func(r rune) bool { return r > 0x2800 && r <= 0x28ff }) {
		t.Error("surface should light some of the canvas")
	}
}

func TestProgressBar(t *testing.T) {
	for _, p := range []float64{-1, 0, 0.5, 1, 2} {
		bar := ProgressBar(p, 10)
		if n := strings.Count(bar, "█") + strings.Count(bar, "░"); n != 10 {
			t.Errorf("ProgressBar(%g) has %d cells, want 10", p, n)
		}
	}
}

func TestNextTheme(t *testing.T) {
	start := CurrentTheme.Name
	seen := map[string]bool{start: true}
	for range Themes[1:] {
		NextTheme()
		seen[CurrentTheme.Name] = true
	}
	NextTheme()
	if CurrentTheme.Name != start {
		t.Errorf("cycle ended on %s, want %s", CurrentTheme.Name, start)
	}
	if len(seen) != len(Themes) {
		t.Errorf("visited %d themes, want %d", len(seen), len(Themes))
	}
}

// seiche launches ten steps of a 1D basin with a bump in the middle.
func seiche(t *testing.T) Launcher {
	t.Helper()
	return func() (*sim.Simulator, *dynamo.State, error) {
		g, err := grid.New1D(21, 1)
		if err != nil {
			return nil, nil, err
		}
		sw, err := physics.NewShallowWater(9.81, 1)
		if err != nil {
			return nil, nil, err
		}
		bc, err := boundary.New(g, boundary.Uniform(g, boundary.Reflective()))
		if err != nil {
			return nil, nil, err
		}
		l, _ := logtest.NewNullLogger()
		s, err := sim.New(g, sw, bc, sim.Config{Dt: 0.1, EndTime: 1, Scheme: "rk4"}, sim.WithLogger(l))
		if err != nil {
			return nil, nil, err
		}
		eta := g.NewField()
		for i := 0; i < g.Nx(); i++ {
			eta.Set(i, 0, 0.01*math.Exp(-math.Pow(float64(i-10), 2)/8))
		}
		return s, dynamo.NewState().Set(physics.Elevation, eta).Set(physics.VelocityX, g.NewField()), nil
	}
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelSteps(t *testing.T) {
	m, err := NewModel("seiche", physics.Elevation, [2]int{10, 0}, seiche(t))
	if err != nil {
		t.Fatal(err)
	}
	if len(m.history) != 1 {
		t.Fatalf("history = %d, want the initial snapshot", len(m.history))
	}

	m = update(t, m, TickMsg(time.Now()))
	if len(m.history) != 2 || m.sim.Time() == 0 {
		t.Errorf("one tick should take one step, history = %d", len(m.history))
	}

	m = update(t, m, key(" "))
	m = update(t, m, TickMsg(time.Now()))
	if len(m.history) != 2 {
		t.Error("paused model should not step")
	}

	m = update(t, m, key(" "))
	m = update(t, m, key("+"))
	for i := 0; i < 10; i++ {
		m = update(t, m, TickMsg(time.Now()))
	}
	if !m.sim.Done() || len(m.history) != 11 {
		t.Errorf("done = %v, history = %d, want 11 snapshots", m.sim.Done(), len(m.history))
	}
	if !strings.Contains(m.View(), "FINISHED") {
		t.Error("view should report the finished run")
	}
	if len(m.gaugeHistory) != 11 || m.gaugeHistory[0] != 0.01 {
		t.Errorf("gauge = %v", m.gaugeHistory)
	}
	if len(m.energyHistory) != 11 || m.energyHistory[0] <= 0 {
		t.Errorf("energy = %v", m.energyHistory)
	}
}

func TestModelReplayAndReset(t *testing.T) {
	m, err := NewModel("seiche", physics.Elevation, [2]int{10, 0}, seiche(t))
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		m = update(t, m, TickMsg(time.Now()))
	}

	m = update(t, m, key("["))
	if m.playHead != 2 || m.running {
		t.Errorf("playHead = %d running = %v, want 2 and paused", m.playHead, m.running)
	}
	if !strings.Contains(m.View(), "REPLAY") {
		t.Error("view should show replay")
	}
	m = update(t, m, key("]"))
	m = update(t, m, key("]"))
	if m.playHead != -1 {
		t.Errorf("playHead = %d, want live", m.playHead)
	}

	m = update(t, m, key("f"))
	if m.field != physics.VelocityX {
		t.Errorf("field = %s, want %s", m.field, physics.VelocityX)
	}

	m = update(t, m, key("r"))
	if len(m.history) != 1 || m.sim.Time() != 0 {
		t.Errorf("reset should start over, history = %d", len(m.history))
	}
}

func TestAppOpensChoice(t *testing.T) {
	var got map[string]float64
	choices := []Choice{
		{Name: "a", Kind: "wave"},
		{Name: "seiche", Kind: "shallow_water", Params: []Param{{Name: "dt", Value: 0.1, Step: 0.05}}},
	}
	open := func(c Choice, params map[string]float64) (Model, error) {
		got = params
		return NewModel(c.Name, physics.Elevation, [2]int{10, 0}, seiche(t))
	}

	var m tea.Model = NewApp(choices, open)
	for _, k := range []tea.KeyMsg{key("j"), {Type: tea.KeyEnter}, key("l"), key("s")} {
		m, _ = m.Update(k)
	}
	if got == nil || math.Abs(got["dt"]-0.15) > 1e-12 {
		t.Errorf("params = %v, want dt 0.15", got)
	}
	if !strings.Contains(m.View(), "SEICHE") {
		t.Error("live view should be shown after start")
	}
}
