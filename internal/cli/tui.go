package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/exorcism/pkg/esop"
	"github.com/matzehuels/exorcism/pkg/pipeline"
)

// Pass table styles
var (
	passGainStyle = lipgloss.NewStyle().Foreground(colorGreen)
	passDimStyle  = lipgloss.NewStyle().Foreground(colorDim)
)

// passHistory is the number of passes shown in the table.
const passHistory = 12

// =============================================================================
// Messages
// =============================================================================

// passMsg reports a completed pass.
type passMsg esop.PassStats

// doneMsg ends the program with the pipeline outcome.
type doneMsg struct {
	result *pipeline.Result
	err    error
}

// =============================================================================
// passModel - Live minimization progress
// =============================================================================

// passModel is the bubbletea model showing the passes of one minimization.
type passModel struct {
	name   string
	start  time.Time
	passes []esop.PassStats
	total  int
	gain   int
	frame  int
	result *pipeline.Result
	err    error
	done   bool
}

type tickMsg time.Time

func newPassModel(name string) passModel {
	return passModel{name: name, start: time.Now()}
}

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m passModel) Init() tea.Cmd {
	return tick()
}

func (m passModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}
	case passMsg:
		ps := esop.PassStats(msg)
		m.total++
		m.gain += ps.Gain
		m.passes = append(m.passes, ps)
		if len(m.passes) > passHistory {
			m.passes = m.passes[len(m.passes)-passHistory:]
		}
	case doneMsg:
		m.result, m.err, m.done = msg.result, msg.err, true
		return m, tea.Quit
	case tickMsg:
		m.frame++
		return m, tick()
	}
	return m, nil
}

func (m passModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Minimizing " + m.name))
	b.WriteString("\n")
	b.WriteString(passDimStyle.Render("q quit"))
	b.WriteString("\n\n")

	rows := make([][]string, len(m.passes))
	for i, ps := range m.passes {
		rows[i] = []string{
			strconv.Itoa(ps.Iteration),
			ps.Phase,
			strconv.Itoa(ps.Dist),
			strconv.Itoa(ps.Queued),
			strconv.Itoa(ps.Accepted),
			strconv.Itoa(ps.Gain),
			strconv.Itoa(ps.Cubes),
			strconv.Itoa(ps.Literals),
			ps.Elapsed.Round(time.Millisecond).String(),
		}
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Iter", "Phase", "Dist", "Queued", "Accepted", "Gain", "Cubes", "Literals", "Time").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return styleHeader
			}
			if col == 5 && m.passes[row].Gain > 0 {
				return passGainStyle
			}
			if col == 6 {
				return StyleNumber
			}
			return passDimStyle
		})
	b.WriteString(t.Render())
	b.WriteString("\n\n")

	status := fmt.Sprintf("  %d passes · %d cubes removed · %s",
		m.total, m.gain, time.Since(m.start).Round(100*time.Millisecond))
	if !m.done {
		status = styleIconSpinner.Render(spinnerFrames[m.frame%len(spinnerFrames)]) + passDimStyle.Render(status)
	} else {
		status = passDimStyle.Render(status)
	}
	b.WriteString(status)
	b.WriteString("\n")

	return b.String()
}
