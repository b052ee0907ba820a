// Package tui is an interactive bench console for exercising the
// precharge sequencer against the simulated signal source. The operator
// toggles contact sense and the emergency-open input from a command
// line while the state machine runs live.
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sweeney/precharge-sequencer/internal/contactor"
	"github.com/sweeney/precharge-sequencer/internal/precharge"
	"github.com/sweeney/precharge-sequencer/internal/sequencer"
	"github.com/sweeney/precharge-sequencer/internal/signal"
)

const tickInterval = 100 * time.Millisecond

// --- STYLES ---
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#575B7E")).
			Padding(0, 1)

	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	keyStyle = lipgloss.NewStyle().Bold(true)

	closedStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("46")).Bold(true)
	faultStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	prechargingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("226")).Bold(true)
	idleStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type tickMsg time.Time

// Model is the bubbletea model for the bench console.
type Model struct {
	cfg    precharge.Config
	sim    *signal.Sim
	ctrl   *sequencer.Controller
	driver *contactor.Fake

	viewport  viewport.Model
	textInput textinput.Model
	ready     bool

	prechargeStart time.Time
	lastReading    signal.Reading
	attemptTimer   float64
	events         []string
	status         string
}

// NewModel builds a console around a simulator for the given circuit.
// A nil now selects the wall clock.
func NewModel(cfg precharge.Config, now func() time.Time) (Model, error) {
	driver := contactor.NewFake()
	ctrl, err := sequencer.New(cfg, driver)
	if err != nil {
		return Model{}, err
	}

	ti := textinput.New()
	ti.Placeholder = "sense on | sense off | estop on | estop off | quit"
	ti.Focus()

	return Model{
		cfg:       cfg,
		sim:       signal.NewSim(cfg, now),
		ctrl:      ctrl,
		driver:    driver,
		textInput: ti,
		status:    "Ready. Type 'sense on' to seat the connector.",
	}, nil
}

func (m Model) Init() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// --- UPDATE ---
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var (
		cmd  tea.Cmd
		cmds []tea.Cmd
	)

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.textInput.Focused() {
			switch msg.Type {
			case tea.KeyEnter:
				if m.handleCommand() {
					return m, tea.Quit
				}
				return m, nil
			case tea.KeyCtrlC:
				return m, tea.Quit
			case tea.KeyEsc:
				m.textInput.Blur()
				return m, nil
			}
		} else {
			switch msg.String() {
			case "q", "ctrl+c":
				return m, tea.Quit
			case "i", "c":
				m.textInput.Focus()
				return m, nil
			}
		}

	case tea.WindowSizeMsg:
		topPaneHeight := 9
		footerHeight := 3
		verticalMargin := topPaneHeight + footerHeight

		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-verticalMargin)
			m.viewport.Style = baseStyle
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - verticalMargin
		}

	case tickMsg:
		m.step()
		m.viewport.SetContent(strings.Join(m.events, "\n"))
		m.viewport.GotoBottom()
		return m, tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
	}

	if m.textInput.Focused() {
		m.textInput, cmd = m.textInput.Update(msg)
		cmds = append(cmds, cmd)
	} else {
		m.viewport, cmd = m.viewport.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

// step samples the simulator and advances the state machine once. The
// attempt timer derives from reading timestamps: it starts when the
// machine enters PRECHARGING and holds its last value outside it.
func (m *Model) step() {
	reading, err := m.sim.Sample()
	if err != nil {
		m.status = fmt.Sprintf("sample error: %v", err)
		return
	}
	m.lastReading = reading

	if m.ctrl.State() == sequencer.StatePrecharging {
		m.attemptTimer = reading.At.Sub(m.prechargeStart).Seconds()
	}

	state := m.ctrl.Step(sequencer.Signals{
		ContactSense:  reading.ContactSense,
		EmergencyOpen: reading.EmergencyOpen,
		Timer:         m.attemptTimer,
		CapVoltage:    reading.CapVoltage,
	})

	if ev, ok := m.ctrl.LastEvent(); ok {
		if state == sequencer.StatePrecharging {
			m.prechargeStart = reading.At
			m.attemptTimer = 0
		}
		m.events = append(m.events, fmt.Sprintf("%s  %-16s %s → %s  (%.3fs, %.2fV)",
			reading.At.Format("15:04:05.000"), ev.Type, ev.From, ev.To,
			ev.Signals.Timer, ev.Signals.CapVoltage))
	}
}

// handleCommand consumes the text input. It returns true when the
// operator asked to quit.
func (m *Model) handleCommand() bool {
	input := strings.TrimSpace(m.textInput.Value())
	defer m.textInput.SetValue("")
	if input == "" {
		return false
	}

	parts := strings.Fields(strings.ToLower(input))
	switch parts[0] {
	case "quit", "q", "exit":
		return true
	case "sense", "s":
		on, err := parseOnOff(parts)
		if err != nil {
			m.status = err.Error()
			return false
		}
		m.sim.SetSense(on)
		m.status = fmt.Sprintf("contact sense %s", onOff(on))
	case "estop", "e":
		on, err := parseOnOff(parts)
		if err != nil {
			m.status = err.Error()
			return false
		}
		m.sim.SetEstop(on)
		m.status = fmt.Sprintf("emergency open %s", onOff(on))
	default:
		m.status = fmt.Sprintf("unknown command '%s'", parts[0])
	}
	return false
}

func parseOnOff(parts []string) (bool, error) {
	if len(parts) < 2 {
		return false, fmt.Errorf("'%s' requires on or off", parts[0])
	}
	switch parts[1] {
	case "on", "1", "true":
		return true, nil
	case "off", "0", "false":
		return false, nil
	}
	return false, fmt.Errorf("'%s': want on or off, got '%s'", parts[0], parts[1])
}

func onOff(on bool) string {
	if on {
		return "on"
	}
	return "off"
}

// --- VIEW ---
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	topPanes := lipgloss.JoinHorizontal(lipgloss.Left,
		m.renderStatePane(),
		m.renderCircuitPane(),
	)
	return lipgloss.JoinVertical(lipgloss.Left,
		topPanes,
		m.viewport.View(),
		m.renderFooter(),
	)
}

func stateStyle(s sequencer.State) lipgloss.Style {
	switch s {
	case sequencer.StateClosed:
		return closedStyle
	case sequencer.StateFault:
		return faultStyle
	case sequencer.StatePrecharging:
		return prechargingStyle
	}
	return idleStyle
}

func (m Model) renderStatePane() string {
	state := m.ctrl.State()
	counts := m.ctrl.Counts()
	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Sequencer"),
		keyStyle.Render("State:    ")+stateStyle(state).Render(state.String()),
		keyStyle.Render("Cap:      ")+fmt.Sprintf("%.2f V / %.1f V", m.lastReading.CapVoltage, m.cfg.BusVoltageV),
		keyStyle.Render("Timer:    ")+fmt.Sprintf("%.3f s", m.attemptTimer),
		keyStyle.Render("Closes:   ")+fmt.Sprintf("%d", counts.MainCloses),
		keyStyle.Render("Faults:   ")+fmt.Sprintf("%d  Aborts: %d", counts.Faults, counts.Aborts),
	)
	paneWidth := m.viewport.Width / 2
	return baseStyle.Width(paneWidth).Height(7).Render(content)
}

func (m Model) renderCircuitPane() string {
	sense := "open"
	if m.lastReading.ContactSense {
		sense = "seated"
	}
	estop := "clear"
	if m.lastReading.EmergencyOpen {
		estop = faultStyle.Render("ASSERTED")
	}
	content := lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("Circuit"),
		keyStyle.Render("Resistor: ")+fmt.Sprintf("%.2f Ω", m.cfg.ResistorOhm),
		keyStyle.Render("Cap:      ")+fmt.Sprintf("%.4f F", m.cfg.CapacitanceF),
		keyStyle.Render("Window:   ")+fmt.Sprintf("%.3fs – %.3fs", m.cfg.MinPrechargeS, m.cfg.MaxPrechargeS),
		keyStyle.Render("Sense:    ")+sense,
		keyStyle.Render("Estop:    ")+estop,
	)
	leftPaneWidth := m.viewport.Width / 2
	rightPaneWidth := m.viewport.Width - leftPaneWidth - 3
	return baseStyle.Width(rightPaneWidth).Height(7).Render(content)
}

func (m Model) renderFooter() string {
	help := "(i) to input command | (q) to quit | Esc leaves input"
	if m.textInput.Focused() {
		help = m.status
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		m.textInput.View(),
		help,
	)
}

// Run starts the console and blocks until the operator quits.
func Run(cfg precharge.Config) error {
	m, err := NewModel(cfg, nil)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
