package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/raphaelgruber/targetdiff/internal/models"
	"github.com/raphaelgruber/targetdiff/internal/source"
	"golang.org/x/term"
)

// errInterrupted is returned when the user aborts a run from the progress view.
var errInterrupted = errors.New("interrupted")

// Theme holds the color scheme for the progress display.
type Theme struct {
	Status  lipgloss.Color
	Success lipgloss.Color
	Error   lipgloss.Color
	Hint    lipgloss.Color
}

// defaultTheme provides default colors.
var defaultTheme = Theme{
	Status:  lipgloss.Color("#5FAFD7"), // light blue
	Success: lipgloss.Color("#00D787"), // green
	Error:   lipgloss.Color("#FF005F"), // red
	Hint:    lipgloss.Color("#6C6C6C"), // dim gray
}

func (t Theme) statusStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Status)
}

func (t Theme) completedStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Success).Bold(true)
}

func (t Theme) errorStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Error).Bold(true)
}

func (t Theme) hintStyle() lipgloss.Style {
	return lipgloss.NewStyle().Foreground(t.Hint).Italic(true)
}

// readMsg reports one more file read.
type readMsg struct {
	done, total int
	file        string
}

// runDoneMsg carries the outcome of the background run.
type runDoneMsg struct {
	err error
}

// progressModel is the bubbletea model for file read progress.
type progressModel struct {
	progress progress.Model
	theme    Theme
	done     int
	total    int
	file     string
	finished bool
	quitting bool
	err      error
}

func newProgressModel() progressModel {
	return progressModel{
		progress: progress.New(
			progress.WithDefaultBlend(),
			progress.WithWidth(40),
		),
		theme: defaultTheme,
	}
}

// Init returns the initial command.
func (m progressModel) Init() tea.Cmd {
	return m.progress.Init()
}

// Update handles messages and returns the updated model.
func (m progressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			return m, tea.Quit
		}

	case readMsg:
		m.done, m.total, m.file = msg.done, msg.total, msg.file
		return m, nil

	case runDoneMsg:
		m.finished = true
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the progress display.
func (m progressModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m progressModel) renderContent() string {
	if m.quitting {
		return m.theme.hintStyle().Render("Cancelled.\n")
	}
	if m.finished {
		if m.err != nil {
			return m.theme.errorStyle().Render(fmt.Sprintf("✗ Failed: %s\n", m.err))
		}
		return m.theme.completedStyle().Render(fmt.Sprintf("✓ Read %d files\n", m.total))
	}
	if m.total == 0 {
		return m.theme.statusStyle().Render("[listing]") + " collecting files...\n"
	}

	pct := float64(m.done) / float64(m.total)
	status := m.theme.statusStyle().Render("[reading]")
	counts := fmt.Sprintf("%d/%d files", m.done, m.total)
	hint := m.theme.hintStyle().Render(m.file)
	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, hint)
}

// interactive reports whether a progress view can be drawn on stderr.
func interactive() bool {
	return term.IsTerminal(int(os.Stderr.Fd()))
}

// runWithProgress runs fn in the background while drawing read progress on
// stderr. Quitting the view cancels fn's context and returns errInterrupted.
func runWithProgress(ctx context.Context, fn func(ctx context.Context, progress source.ProgressFunc) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(newProgressModel(), tea.WithOutput(os.Stderr), tea.WithContext(ctx))
	result := make(chan error, 1)
	go func() {
		err := fn(ctx, func(done, total int, file models.FileRef) {
			p.Send(readMsg{done: done, total: total, file: file.RelPath})
		})
		result <- err
		p.Send(runDoneMsg{err: err})
	}()

	finalModel, err := p.Run()
	if m, ok := finalModel.(progressModel); ok && m.quitting {
		cancel()
		<-result
		return errInterrupted
	}
	if runErr := <-result; runErr != nil {
		return runErr
	}
	if err != nil && ctx.Err() == nil {
		return fmt.Errorf("progress UI error: %w", err)
	}
	return nil
}
