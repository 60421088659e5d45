// Package tui provides a Bubble Tea TUI for running timed reading sessions.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/RohitKattimani/MedReadApp/internal/models"
	"github.com/RohitKattimani/MedReadApp/internal/reading"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	timerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("178"))

	positionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	imageCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(1, 3)

	choiceStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Padding(0, 1)

	selectedChoiceStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("62")).
				Padding(0, 1)

	correctStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("82"))
	wrongStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	pausedStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("214"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// ── Messages ───────────────────

type tickMsg time.Time

// repaintMsg asks for a render without scheduling another tick.
type repaintMsg struct{}

type startedMsg struct{ err error }

type submittedMsg struct{ err error }

type statusChangedMsg struct{ err error }

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// ── Model ────────────────────

// Model is the root Bubble Tea model for a reading session.
type Model struct {
	ctrl    *reading.Controller
	choices []string

	cursor      int
	customInput textinput.Model
	customMode  bool

	width  int
	height int
	err    error
}

// New builds the session model. choices are the fixed diagnosis values
// offered alongside free-text entry.
func New(ctrl *reading.Controller, choices []string) Model {
	ti := textinput.New()
	ti.Placeholder = "type a diagnosis"
	ti.CharLimit = 64
	ti.Width = 40
	return Model{
		ctrl:        ctrl,
		choices:     choices,
		customInput: ti,
	}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg { return startedMsg{err: m.ctrl.Start(context.Background())} },
		tick(),
	)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		if m.ctrl.State() == reading.StateCompleted || m.ctrl.State() == reading.StateQuit {
			return m, tea.Quit
		}
		return m, tick()

	case repaintMsg:
		if m.ctrl.State() == reading.StateCompleted || m.ctrl.State() == reading.StateQuit {
			return m, tea.Quit
		}
		return m, nil

	case startedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		return m, nil

	case submittedMsg:
		if msg.err != nil && msg.err != reading.ErrSubmissionInFlight {
			m.err = msg.err
		}
		return m, nil

	case statusChangedMsg:
		if msg.err != nil {
			m.err = msg.err
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.customMode {
		return m.handleCustomKey(msg)
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, func() tea.Msg {
			return statusChangedMsg{err: m.ctrl.Quit(context.Background())}
		}
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.choices)-1 {
			m.cursor++
		}
	case "1", "2", "3", "4", "5", "6", "7", "8", "9":
		n, _ := strconv.Atoi(msg.String())
		if n <= len(m.choices) {
			m.cursor = n - 1
			return m, m.submit(reading.FixedDiagnosis(m.choices[m.cursor]))
		}
	case "enter", " ":
		if m.ctrl.State() == reading.StateActive && len(m.choices) > 0 {
			return m, m.submit(reading.FixedDiagnosis(m.choices[m.cursor]))
		}
	case "c":
		if m.ctrl.State() == reading.StateActive {
			m.customMode = true
			m.ctrl.BeginCustomEntry()
			m.customInput.Reset()
			return m, m.customInput.Focus()
		}
	case "p":
		if m.ctrl.State() == reading.StateActive {
			return m, func() tea.Msg {
				return statusChangedMsg{err: m.ctrl.Pause(context.Background())}
			}
		}
	case "r":
		if m.ctrl.State() == reading.StatePaused {
			return m, func() tea.Msg {
				return statusChangedMsg{err: m.ctrl.Resume(context.Background())}
			}
		}
	case "left", "h":
		m.ctrl.Retreat()
	case "right", "l":
		m.ctrl.Advance()
	}
	return m, nil
}

func (m Model) handleCustomKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.customMode = false
		m.customInput.Blur()
		m.ctrl.EndCustomEntry()
		return m, nil
	case "enter":
		value := m.customInput.Value()
		m.customMode = false
		m.customInput.Blur()
		m.ctrl.EndCustomEntry()
		if strings.TrimSpace(value) == "" {
			return m, nil
		}
		return m, m.submit(reading.CustomDiagnosis(value))
	}
	var cmd tea.Cmd
	m.customInput, cmd = m.customInput.Update(msg)
	return m, cmd
}

func (m Model) submit(d reading.Diagnosis) tea.Cmd {
	return func() tea.Msg {
		return submittedMsg{err: m.ctrl.Submit(context.Background(), d)}
	}
}

// ── View ─────────────────────

func (m Model) View() string {
	if m.err != nil {
		return "Error: " + m.err.Error() + "\n"
	}
	if m.width == 0 {
		return "Loading…"
	}

	index, total := m.ctrl.Position()
	title := titleStyle.Width(m.width).Render("  MedRead  reading session")

	var body string
	switch m.ctrl.State() {
	case reading.StateLoading:
		body = dimStyle.Render("\n  Loading session…\n")
	case reading.StatePaused:
		body = "\n" + pausedStyle.Render("  ⏸ Paused") + dimStyle.Render("  press r to resume\n")
	case reading.StateReviewing:
		body = m.renderReview()
	case reading.StateCompleted, reading.StateQuit:
		body = m.renderFinal()
	default:
		body = m.renderActive(index, total)
	}

	hint := "  ↑/↓ select  enter submit  c custom  ←/→ browse  p pause  q quit"
	if m.customMode {
		hint = "  enter submit  esc cancel"
	}
	status := statusBarStyle.Width(m.width).Render(hint)

	return lipgloss.JoinVertical(lipgloss.Left, title, body, status)
}

func (m Model) renderActive(index, total int) string {
	var sb strings.Builder

	img := m.ctrl.Current()
	elapsed := m.ctrl.ActiveTime()

	pos := positionStyle.Render(fmt.Sprintf("Image %d of %d", index+1, total))
	clock := timerStyle.Render(formatDuration(elapsed))
	sb.WriteString("\n  " + pos + "   " + clock + "\n\n")

	card := fmt.Sprintf("%s\n%s", img.ID, dimStyle.Render(img.Filename))
	sb.WriteString(indent(imageCardStyle.Render(card), "  ") + "\n\n")

	sb.WriteString(sectionHeader.Render("  Your diagnosis") + "\n\n")
	if m.customMode {
		sb.WriteString("  " + m.customInput.View() + "\n")
		return sb.String()
	}
	for i, choice := range m.choices {
		label := fmt.Sprintf("%d. %s", i+1, choice)
		if i == m.cursor {
			sb.WriteString("  " + selectedChoiceStyle.Render("▶ "+label) + "\n")
		} else {
			sb.WriteString("  " + choiceStyle.Render("  "+label) + "\n")
		}
	}
	sb.WriteString("\n" + dimStyle.Render("  c  other (free text)") + "\n")
	return sb.String()
}

func (m Model) renderReview() string {
	result := m.ctrl.LastResult()
	if result == nil {
		return "\n"
	}
	var sb strings.Builder
	sb.WriteString("\n")
	if result.IsCorrect {
		sb.WriteString(correctStyle.Render("  ✓ Correct") + "\n")
	} else {
		sb.WriteString(wrongStyle.Render("  ✗ Incorrect") + "\n")
		sb.WriteString(labelStyle.Render("  Actual:") + "  " + result.ActualCategory + "\n")
	}
	return sb.String()
}

func (m Model) renderFinal() string {
	session := m.ctrl.Session()
	if session == nil {
		return "\n"
	}
	var sb strings.Builder
	sb.WriteString("\n" + sectionHeader.Render("  Session complete") + "\n\n")
	row := func(label, value string) {
		sb.WriteString(labelStyle.Render(fmt.Sprintf("  %-12s", label)) + "  " + value + "\n")
	}
	row("Images:", strconv.Itoa(session.ImagesReviewed))
	row("Correct:", fmt.Sprintf("%d of %d", session.CorrectCount, session.ImagesReviewed))
	row("Accuracy:", fmt.Sprintf("%.1f%%", session.Accuracy()))
	if session.Status == models.StatusQuit {
		sb.WriteString("\n" + dimStyle.Render("  (session quit early)") + "\n")
	}
	return sb.String()
}

// ── Helpers ───────────────────────────────────────────────────────────────────

func formatDuration(d time.Duration) string {
	total := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", total/60, total%60)
}

func indent(s, prefix string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = prefix + l
		}
	}
	return strings.Join(lines, "\n")
}

// Run drives a full reading session in the terminal.
func Run(ctrl *reading.Controller, choices []string) error {
	p := tea.NewProgram(New(ctrl, choices), tea.WithAltScreen())

	// Repaints arrive via the controller's change hook so timer ticks and
	// review expiry show without a keypress.
	ctrl.SetOnChange(func() { p.Send(repaintMsg{}) })

	_, err := p.Run()
	return err
}
