package tui

import (
	"fmt"
	"math"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/san-kum/revolute/internal/config"
	"github.com/san-kum/revolute/internal/experiment"
	"github.com/san-kum/revolute/internal/multibody"
	"github.com/san-kum/revolute/internal/scalar"
)

const (
	minStep = 1.0 / 1024
	maxStep = math.Pi
)

// Inspector is an interactive view of one scenario: pick a joint, nudge its
// angle and rate, inject torque and watch the rotation and its derivative.
type Inspector struct {
	cfg    *config.Config
	model  *experiment.Model[scalar.Real]
	cursor int
	step   float64
	torque float64
	err    error

	width  int
	height int
}

func NewInspector(cfg *config.Config) (*Inspector, error) {
	m, err := load(cfg)
	if err != nil {
		return nil, err
	}
	return &Inspector{
		cfg:    cfg,
		model:  m,
		step:   0.1,
		torque: 0.5,
		width:  80,
		height: 24,
	}, nil
}

func load(cfg *config.Config) (*experiment.Model[scalar.Real], error) {
	m, err := experiment.Build[scalar.Real](cfg)
	if err != nil {
		return nil, err
	}
	if err := m.Apply(cfg, scalar.From[scalar.Real]); err != nil {
		return nil, err
	}
	return m, nil
}

func (m Inspector) Init() tea.Cmd { return nil }

func (m Inspector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}
	return m, nil
}

func (m Inspector) handleKey(msg tea.KeyMsg) (Inspector, tea.Cmd) {
	m.err = nil
	switch msg.String() {
	case "q", "esc", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.model.Joints)-1 {
			m.cursor++
		}
	case "left", "h":
		m.nudgeAngle(-m.step)
	case "right", "l":
		m.nudgeAngle(m.step)
	case "[":
		m.nudgeRate(-m.step)
	case "]":
		m.nudgeRate(m.step)
	case "t":
		m.addTorque(m.torque)
	case "T":
		m.addTorque(-m.torque)
	case "z":
		m.model.Forces.SetZero()
	case "+", "=":
		m.step = math.Min(m.step*2, maxStep)
	case "-", "_":
		m.step = math.Max(m.step/2, minStep)
	case "r":
		fresh, err := load(m.cfg)
		if err != nil {
			m.err = err
			break
		}
		m.model = fresh
	}
	return m, nil
}

func (m *Inspector) selected() *multibody.RevoluteJoint[scalar.Real] {
	return m.model.Joints[m.cursor]
}

func (m *Inspector) nudgeAngle(delta float64) {
	j := m.selected()
	angle, err := j.Angle(m.model.Context)
	if err == nil {
		_, err = j.SetAngle(m.model.Context, angle+scalar.Real(delta))
	}
	m.err = err
}

func (m *Inspector) nudgeRate(delta float64) {
	j := m.selected()
	rate, err := j.AngularRate(m.model.Context)
	if err == nil {
		_, err = j.SetAngularRate(m.model.Context, rate+scalar.Real(delta))
	}
	m.err = err
}

func (m *Inspector) addTorque(tau float64) {
	m.err = m.selected().AddInTorque(m.model.Context, scalar.Real(tau), m.model.Forces)
}

// derivative evaluates dR/dθ of the selected joint on a dual clone of the
// current model.
func (m *Inspector) derivative() (mgl64.Mat3, error) {
	dual, err := experiment.CloneTo[scalar.Dual](m.model)
	if err != nil {
		return mgl64.Mat3{}, err
	}
	j := dual.Joints[m.cursor]
	angle, err := j.Angle(dual.Context)
	if err != nil {
		return mgl64.Mat3{}, err
	}
	if _, err := j.SetAngle(dual.Context, scalar.NewDual(angle.Value(), 1)); err != nil {
		return mgl64.Mat3{}, err
	}
	rot, err := j.CalcRotation(dual.Context)
	if err != nil {
		return mgl64.Mat3{}, err
	}
	return multibody.Derivatives(rot), nil
}

func (m Inspector) View() string {
	var b strings.Builder

	b.WriteString(header.Render(fmt.Sprintf("revolute inspector · %s", m.cfg.Name)))
	b.WriteString("\n\n")
	b.WriteString(m.jointTable())
	b.WriteString("\n")

	canvasW := max(m.width/2-4, 20)
	canvasH := max(m.height-len(m.model.Joints)-14, 8)
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		panel.Render(m.chainView(canvasW, canvasH)),
		panel.Render(m.detailView()),
	))
	b.WriteString("\n")

	if m.err != nil {
		b.WriteString(red.Render(m.err.Error()))
		b.WriteString("\n")
	}
	b.WriteString(keyHint.Render(fmt.Sprintf(
		"↑↓ joint  ←→ angle  [ ] rate  t/T torque ±%.2g  z zero  +/- step %.4g  r reset  q quit",
		m.torque, m.step)))
	return b.String()
}

func (m Inspector) jointTable() string {
	var b strings.Builder
	b.WriteString(dim.Render(fmt.Sprintf("  %-12s %-20s %-24s %10s %10s %10s", "joint", "frames", "axis", "θ", "θ̇", "τ")))
	b.WriteString("\n")

	forces := m.model.Forces.GeneralizedForces()
	for i, j := range m.model.Joints {
		angle, _ := j.Angle(m.model.Context)
		rate, _ := j.AngularRate(m.model.Context)
		a := j.Axis()
		line := fmt.Sprintf("%-12s %-20s %-24s %10.4f %10.4f %10.4f",
			j.Name(),
			j.FrameOnParent().Name()+" → "+j.FrameOnChild().Name(),
			fmt.Sprintf("(%.3f, %.3f, %.3f)", a[0], a[1], a[2]),
			float64(angle), float64(rate), float64(forces[j.VelocityStart()]))
		if i == m.cursor {
			b.WriteString(cyan.Render("▸ " + line))
		} else {
			b.WriteString(white.Render("  " + line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func (m Inspector) chainView(w, h int) string {
	canvas := make([][]rune, h)
	for y := range canvas {
		canvas[y] = []rune(strings.Repeat(" ", w))
	}
	drawChain(canvas, w, h, chainSegments(m.model), m.cursor)

	lines := make([]string, h)
	for y, row := range canvas {
		lines[y] = green.Render(string(row))
	}
	return strings.Join(lines, "\n")
}

func (m Inspector) detailView() string {
	j := m.model.Joints[m.cursor]
	var b strings.Builder

	b.WriteString(magenta.Render(j.Name()))
	b.WriteString(dimmer.Render(fmt.Sprintf("  q[%d] v[%d]", j.PositionStart(), j.VelocityStart())))
	b.WriteString("\n\n")

	rot, err := j.CalcRotation(m.model.Context)
	if err != nil {
		return red.Render(err.Error())
	}
	b.WriteString(dim.Render("R_FM"))
	b.WriteString("\n")
	b.WriteString(formatMat(rot.Values()))

	if d, err := m.derivative(); err == nil {
		b.WriteString("\n")
		b.WriteString(dim.Render("dR/dθ"))
		b.WriteString("\n")
		b.WriteString(formatMat(d))
	}

	if w, err := j.CalcAngularVelocity(m.model.Context); err == nil {
		b.WriteString("\n")
		b.WriteString(dim.Render("ω_FM "))
		b.WriteString(yellow.Render(fmt.Sprintf("(%.4f, %.4f, %.4f)", float64(w[0]), float64(w[1]), float64(w[2]))))
	}
	return b.String()
}

func formatMat(m mgl64.Mat3) string {
	var b strings.Builder
	for i := range 3 {
		row := m.Row(i)
		b.WriteString(white.Render(fmt.Sprintf("%9.4f %9.4f %9.4f", row[0], row[1], row[2])))
		b.WriteString("\n")
	}
	return b.String()
}

// Watch runs the inspector full screen until the user quits.
func Watch(cfg *config.Config) error {
	ins, err := NewInspector(cfg)
	if err != nil {
		return err
	}
	p := tea.NewProgram(ins, tea.WithAltScreen())
	_, err = p.Run()
	return err
}
