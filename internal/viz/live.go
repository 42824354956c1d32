package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/gravsim/internal/clock"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/sim"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	defaultTrail    = 400
)

type TickMsg time.Time

// feed collects snapshots from the simulator. It is the only path by which
// the view learns about body positions.
type feed struct {
	latest dynamo.Snapshot
	trails [][]r3.Vec
	limit  int
}

func newFeed(initial dynamo.Snapshot, limit int) *feed {
	f := &feed{limit: limit, trails: make([][]r3.Vec, len(initial.Positions))}
	f.OnStep(initial)
	return f
}

func (f *feed) OnStep(s dynamo.Snapshot) {
	f.latest = s
	for i, p := range s.Positions {
		trail := append(f.trails[i], p)
		if len(trail) > f.limit {
			trail = trail[len(trail)-f.limit:]
		}
		f.trails[i] = trail
	}
}

func (f *feed) clearTrails() {
	for i := range f.trails {
		f.trails[i] = f.trails[i][:0]
	}
}

// Model is the live view of one simulator.
type Model struct {
	sim           *sim.Simulator
	name          string
	feed          *feed
	energy        *metrics.EnergyDrift
	energyHistory []float64
	driftHistory  []float64
	radii         []int
	palette       []lipgloss.Style
	camera        *Camera
	canvas        *Canvas
	width, height int
	interval      time.Duration
	lastDt        float64
	running       bool
	done          bool
	err           error
	showHelp      bool
}

// NewModel wraps s in a live view that steps it every interval. The view
// registers itself as an observer of s.
func NewModel(s *sim.Simulator, name string, interval time.Duration) Model {
	if interval <= 0 {
		interval = clock.DefaultPacing
	}
	u := s.Universe()
	f := newFeed(u.Snapshot(s.StepCount(), s.Clock().Elapsed()), defaultTrail)
	s.AddObserver(f)

	var energy *metrics.EnergyDrift
	if h, ok := s.Evaluator().(dynamo.Hamiltonian); ok {
		energy = metrics.NewEnergyDrift(h)
		energy.Observe(u, s.Clock().Elapsed())
		s.AddMetric(energy)
	}

	cam := NewCamera()
	cam.Fit(u.Positions)

	return Model{
		sim:           s,
		name:          name,
		feed:          f,
		energy:        energy,
		energyHistory: make([]float64, 0, historyCapacity),
		driftHistory:  make([]float64, 0, historyCapacity),
		radii:         discRadii(u.Sizes, u.Masses),
		palette:       Palette(u.Colors),
		camera:        cam,
		canvas:        NewCanvas(width, height),
		width:         width,
		height:        height,
		interval:      interval,
		running:       true,
	}
}

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd {
	return m.tick()
}

// Err returns the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

// Done reports whether the clock reached its threshold.
func (m Model) Done() bool { return m.done }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.togglePause()
		case "left", "h":
			m.camera.Rotate(-0.1, 0)
		case "right", "l":
			m.camera.Rotate(0.1, 0)
		case "up", "k":
			m.camera.Rotate(0, 0.1)
		case "down", "j":
			m.camera.Rotate(0, -0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "0":
			m.camera.Reset()
		case "c":
			m.feed.clearTrails()
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running && !m.done && m.err == nil {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) togglePause() {
	m.running = !m.running
	// Wall time spent paused must not turn into one huge step.
	if rt, ok := m.sim.Clock().Policy.(*clock.RealTime); ok && m.running {
		rt.Start()
	}
}

func (m *Model) resize(w, h int) {
	cw := max(20, w-50)
	ch := max(8, h-4)
	if cw == m.width && ch == m.height {
		return
	}
	m.width, m.height = cw, ch
	m.canvas = NewCanvas(cw, ch)
}

// step advances the simulation by one clock tick.
func (m *Model) step() {
	before := m.sim.Clock().Elapsed()
	done, err := m.sim.Advance()
	if err != nil {
		m.err = err
		m.running = false
		return
	}
	m.done = done
	m.lastDt = m.sim.Clock().Elapsed() - before

	if m.energy != nil {
		m.energyHistory = appendCapped(m.energyHistory, m.energy.Current())
		m.driftHistory = appendCapped(m.driftHistory, m.energy.Value())
	}
}

func appendCapped(s []float64, v float64) []float64 {
	s = append(s, v)
	if len(s) > historyCapacity {
		s = s[1:]
	}
	return s
}

type projected struct {
	body  int
	x, y  int
	depth float64
}

// draw renders trails first and bodies on top, far bodies before near ones.
func (m *Model) draw() {
	m.canvas.Clear()
	pw, ph := m.canvas.PixelSize()
	trailInk := len(m.palette)

	for _, trail := range m.feed.trails {
		for _, p := range trail {
			if x, y, _, ok := m.camera.Project(p, pw, ph); ok {
				m.canvas.SetInk(x, y, trailInk)
			}
		}
	}

	bodies := make([]projected, 0, len(m.feed.latest.Positions))
	for i, p := range m.feed.latest.Positions {
		if x, y, d, ok := m.camera.Project(p, pw, ph); ok {
			bodies = append(bodies, projected{i, x, y, d})
		}
	}
	sort.Slice(bodies, func(a, b int) bool { return bodies[a].depth > bodies[b].depth })

	for _, b := range bodies {
		m.canvas.Disc(b.x, b.y, m.radii[b.body], b.body)
	}
}

const maxDiscRadius = 2

// discRadii maps display sizes to disc radii in sub-pixels, scaled to the
// largest size. When no body carries a size the masses are bucketed instead.
func discRadii(sizes, masses []float64) []int {
	radii := make([]int, len(masses))

	largest := 0.0
	for _, s := range sizes {
		largest = math.Max(largest, s)
	}
	if largest > 0 {
		for i := range radii {
			if i < len(sizes) && sizes[i] > 0 {
				r := int(math.Round(maxDiscRadius * sizes[i] / largest))
				radii[i] = min(maxDiscRadius, max(0, r))
			}
		}
		return radii
	}

	heaviest := 0.0
	for _, mass := range masses {
		heaviest = math.Max(heaviest, mass)
	}
	for i, mass := range masses {
		switch {
		case mass >= 0.1*heaviest:
			radii[i] = 2
		case mass >= 1e-4*heaviest:
			radii[i] = 1
		}
	}
	return radii
}

func (m Model) status() string {
	switch {
	case m.err != nil:
		return statusStyle(CurrentTheme.Error).Render("FAILED")
	case m.done:
		return statusStyle(CurrentTheme.Success).Render("FINISHED")
	case !m.running:
		return statusStyle(CurrentTheme.Warning).Render("PAUSED")
	default:
		return statusStyle(CurrentTheme.Success).Render("RUNNING")
	}
}

func (m Model) View() string {
	m.draw()
	palette := append(m.palette, lipgloss.NewStyle().Foreground(CurrentTheme.Trail))
	canvasView := canvasStyle.Render(m.canvas.Render(palette, lipgloss.NewStyle()))

	clk := m.sim.Clock()
	label, value := labelStyle(), valueStyle()

	var s strings.Builder
	s.WriteString(headerStyle().Render(GradientText(strings.ToUpper(m.name), CurrentTheme.Primary, CurrentTheme.Secondary)) + "\n")
	s.WriteString(m.status() + "\n\n")

	s.WriteString(label.Render("Time") + value.Render(FormatSimTime(clk.Elapsed())) + "\n")
	s.WriteString(label.Render("Step") + value.Render(fmt.Sprintf("%d", m.feed.latest.Step)) + "\n")
	s.WriteString(label.Render("dt") + value.Render(FormatSimTime(m.lastDt)) + "\n")
	s.WriteString(label.Render("Bodies") + value.Render(fmt.Sprintf("%d", len(m.radii))) + "\n")
	s.WriteString(label.Render("Force") + value.Render(m.sim.Evaluator().Name()) + "\n")
	s.WriteString(label.Render("Stepper") + value.Render(m.sim.Integrator().Name()) + "\n")
	s.WriteString(label.Render("Clock") + value.Render(clk.Policy.Name()) + "\n")

	if clk.Threshold > 0 {
		frac := clk.Elapsed() / clk.Threshold
		s.WriteString("\n" + ProgressBar(frac, 24) + fmt.Sprintf(" %3.0f%%", 100*math.Min(1, frac)) + "\n")
	}

	if m.energy != nil {
		s.WriteString("\n" + label.Render("dE/E0") + value.Render(fmt.Sprintf("%.3e", m.energy.Value())) + "\n")
		s.WriteString(SparklineChart(m.driftHistory, 30) + "\n")
		if len(m.energyHistory) > 1 {
			chart := asciigraph.Plot(m.energyHistory, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Energy (J)"))
			s.WriteString("\n" + lipgloss.NewStyle().Foreground(CurrentTheme.Accent).Render(chart) + "\n")
		}
	}

	if m.err != nil {
		s.WriteString("\n" + statusStyle(CurrentTheme.Error).Render(wrap(m.err.Error(), 38)) + "\n")
	}

	s.WriteString(keyHint().Render("\nSP:Pause  Q:Quit  ?:Help\n←→↑↓:Rotate  +/-:Zoom"))

	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle().Render(s.String()))
	if m.showHelp {
		return helpText + "\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  ←/→ h/l  - Rotate about the pole    ║
║  ↑/↓ k/j  - Tilt the orbital plane   ║
║  +/-      - Zoom                     ║
║  0        - Reset camera             ║
║  C        - Clear trails             ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`

func wrap(s string, n int) string {
	var b strings.Builder
	for len(s) > n {
		b.WriteString(s[:n] + "\n")
		s = s[n:]
	}
	b.WriteString(s)
	return b.String()
}

// FormatSimTime renders a span of simulated seconds in the largest
// convenient unit.
func FormatSimTime(seconds float64) string {
	const (
		minute = 60.0
		hour   = 60 * minute
		day    = 24 * hour
		year   = 365.25 * day
	)
	switch abs := math.Abs(seconds); {
	case abs >= year:
		return fmt.Sprintf("%.2f yr", seconds/year)
	case abs >= day:
		return fmt.Sprintf("%.2f d", seconds/day)
	case abs >= hour:
		return fmt.Sprintf("%.2f h", seconds/hour)
	case abs >= minute:
		return fmt.Sprintf("%.2f min", seconds/minute)
	default:
		return fmt.Sprintf("%.3g s", seconds)
	}
}

// RunLive runs the live view until the user quits and returns the final
// model state.
func RunLive(m Model) (Model, error) {
	final, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	if err != nil {
		return m, err
	}
	return final.(Model), nil
}
