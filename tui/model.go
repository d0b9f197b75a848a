// Package tui renders an infitable table in the terminal.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/samber/lo"

	"github.com/Alp4ka/infitable"
)

// chromeHeight is the number of lines around the body: title, header,
// status and help.
const chromeHeight = 4

// Model is a bubbletea model driving a Shell.
type Model[T any] struct {
	shell    *infitable.Shell[T]
	notifier *Notifier
	keys     keyMap
	help     help.Model
	spinner  spinner.Model

	title string
	// fixedHeight is the body height requested by the table options; zero
	// follows the terminal.
	fixedHeight int
	width       int
	colCursor   int
	flash       string
}

// New builds a model for shell. notifier must be the one whose Notify is
// the shell's OnChange callback.
func New[T any](shell *infitable.Shell[T], notifier *Notifier, title string) *Model[T] {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = statusStyle

	return &Model[T]{
		shell:       shell,
		notifier:    notifier,
		keys:        keys,
		help:        help.New(),
		spinner:     sp,
		title:       title,
		fixedHeight: shell.Frame().ViewportSize,
	}
}

func (m *Model[T]) Init() tea.Cmd {
	return tea.Batch(
		func() tea.Msg {
			m.shell.Start()
			return nil
		},
		m.spinner.Tick,
		m.notifier.wait(),
	)
}

func (m *Model[T]) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.help.Width = msg.Width
		if m.fixedHeight == 0 {
			m.shell.Resize(max(msg.Height-chromeHeight, 1))
		}
		m.measure()

	case refreshMsg:
		m.measure()
		return m, m.notifier.wait()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		return m, m.handleKey(msg)
	}

	return m, nil
}

func (m *Model[T]) handleKey(msg tea.KeyMsg) tea.Cmd {
	m.flash = ""
	page := max(m.shell.Frame().ViewportSize, 1)
	columns := m.shell.Table().Columns()

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.notifier.Close()
		return tea.Quit
	case key.Matches(msg, m.keys.Up):
		m.shell.ScrollBy(-1)
	case key.Matches(msg, m.keys.Down):
		m.shell.ScrollBy(1)
	case key.Matches(msg, m.keys.PageUp):
		m.shell.ScrollBy(-page)
	case key.Matches(msg, m.keys.PageDown):
		m.shell.ScrollBy(page)
	case key.Matches(msg, m.keys.Home):
		m.shell.ScrollTo(0)
	case key.Matches(msg, m.keys.End):
		m.shell.ScrollToIndex(m.shell.Frame().RowCount - 1)
	case key.Matches(msg, m.keys.Left):
		m.colCursor = max(m.colCursor-1, 0)
	case key.Matches(msg, m.keys.Right):
		m.colCursor = min(m.colCursor+1, len(columns)-1)
	case key.Matches(msg, m.keys.Sort):
		col := columns[m.colCursor]
		if err := m.shell.ToggleSort(col.ID); err != nil {
			m.flash = lo.Ternary(errors.Is(err, infitable.ErrColumnNotSortable),
				fmt.Sprintf("column %q is not sortable", col.ID),
				err.Error())
		}
	case key.Matches(msg, m.keys.Retry):
		m.shell.Retry()
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}

	m.measure()
	return nil
}

// measure reports the rendered height of every mounted row.
func (m *Model[T]) measure() {
	for _, row := range m.shell.Frame().Rows {
		if h := lipgloss.Height(m.renderRow(row.Row)); h != row.Size {
			m.shell.MeasureRow(row.Index, h)
		}
	}
}

func (m *Model[T]) View() string {
	f := m.shell.Frame()

	var b strings.Builder
	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")

	if f.FixedHeader || f.ScrollOffset == 0 {
		b.WriteString(m.renderHeader(f))
		b.WriteString("\n")
	}

	for _, line := range m.renderBody(f) {
		b.WriteString(line)
		b.WriteString("\n")
	}

	b.WriteString(m.renderStatus(f))
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))

	return b.String()
}

func (m *Model[T]) renderHeader(f infitable.Frame) string {
	var cells []string
	for _, group := range f.Headers {
		for i, h := range group.Headers {
			style := headerStyle
			switch {
			case i == m.colCursor:
				style = selectedHeaderStyle
			case !h.CanSort:
				style = unsortableHeaderStyle
			}
			if len(cells) > 0 {
				cells = append(cells, separatorStyle.Render(separator))
			}
			cells = append(cells, style.Render(fit(h.Title+h.Indicator(), h.Width)))
		}
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

func (m *Model[T]) renderRow(row infitable.Row) string {
	cells := make([]string, 0, 2*len(row.Cells))
	for i, cell := range row.Cells {
		if i > 0 {
			cells = append(cells, separatorStyle.Render(separator))
		}
		cells = append(cells, fit(cell.Value, cell.Width))
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, cells...)
}

// renderBody lays the mounted rows out on the visible lines of the body.
func (m *Model[T]) renderBody(f infitable.Frame) []string {
	lines := make([]string, f.ViewportSize)
	for _, row := range f.Rows {
		for i, line := range strings.Split(m.renderRow(row.Row), "\n") {
			if i >= row.Size {
				break
			}
			if y := row.Start + i - f.ScrollOffset; y >= 0 && y < len(lines) {
				lines[y] = line
			}
		}
	}

	return lines
}

func (m *Model[T]) renderStatus(f infitable.Frame) string {
	var status string
	switch f.Status {
	case infitable.StatusLoading, infitable.StatusFetching:
		status = statusStyle.Render(m.spinner.View() + f.StatusText())
	case infitable.StatusError:
		status = errorStyle.Render(f.StatusText() + " (r to retry)")
	}
	if m.flash != "" {
		status = errorStyle.Render(m.flash)
	}

	info := fmt.Sprintf("%d%s rows", f.RowCount, lo.Ternary(f.HasNextPage, "+", ""))
	if !f.Sort.IsEmpty() {
		info += " · sorted by " + f.Sort.String()
	}

	return lipgloss.JoinHorizontal(lipgloss.Top, status, " ", infoStyle.Render(info))
}

// fit truncates every line of s to width cells and pads it to width.
func fit(s string, width int) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = ansi.Truncate(line, width, "…")
	}

	return lipgloss.NewStyle().Width(width).Render(strings.Join(lines, "\n"))
}

// Run starts the shell and blocks until the user quits.
func Run[T any](ctx context.Context, shell *infitable.Shell[T], notifier *Notifier, title string) error {
	defer notifier.Close()

	p := tea.NewProgram(New(shell, notifier, title), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return err
	}

	return nil
}
