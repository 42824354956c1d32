package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// BuildFunc creates the live view for a named preset.
type BuildFunc func(preset string) (Model, error)

// Launcher lists presets and starts a live view for the chosen one.
type Launcher struct {
	presets []string
	info    map[string]string
	cursor  int
	build   BuildFunc
	live    *Model
	err     error
	width   int
	height  int
}

func NewLauncher(presets []string, info map[string]string, build BuildFunc) Launcher {
	return Launcher{presets: presets, info: info, build: build}
}

func (l Launcher) Init() tea.Cmd { return nil }

func (l Launcher) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if l.live != nil {
		next, cmd := l.live.Update(msg)
		live := next.(Model)
		l.live = &live
		return l, cmd
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		l.width, l.height = msg.Width, msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return l, tea.Quit
		case "up", "k":
			if l.cursor > 0 {
				l.cursor--
			}
		case "down", "j":
			if l.cursor < len(l.presets)-1 {
				l.cursor++
			}
		case "enter", " ":
			return l.start()
		}
	}
	return l, nil
}

func (l Launcher) start() (tea.Model, tea.Cmd) {
	if len(l.presets) == 0 {
		return l, nil
	}
	live, err := l.build(l.presets[l.cursor])
	if err != nil {
		l.err = err
		return l, nil
	}
	if l.width > 0 {
		live.resize(l.width, l.height)
	}
	l.live = &live
	return l, live.Init()
}

// Selected returns the preset under the cursor.
func (l Launcher) Selected() string {
	if len(l.presets) == 0 {
		return ""
	}
	return l.presets[l.cursor]
}

func (l Launcher) View() string {
	if l.live != nil {
		return l.live.View()
	}

	var b strings.Builder
	sub := lipgloss.NewStyle().Foreground(CurrentTheme.Muted)
	b.WriteString("\n\n    " + headerStyle().Render("GRAVSIM") + "\n    " + sub.Render("gravitational n-body simulator") + "\n    " + sub.Render("─────────────────────────") + "\n\n")

	for i, name := range l.presets {
		desc := l.info[name]
		if i == l.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n",
				statusStyle(CurrentTheme.Primary).Render("▸"),
				statusStyle(CurrentTheme.Text).Render(fmt.Sprintf("%-16s", name)),
				lipgloss.NewStyle().Foreground(CurrentTheme.Secondary).Render(desc)))
		} else {
			b.WriteString(fmt.Sprintf("    %s  %s\n", sub.Render(fmt.Sprintf("  %-16s", name)), sub.Render(desc)))
		}
	}

	if l.err != nil {
		b.WriteString("\n    " + statusStyle(CurrentTheme.Error).Render(l.err.Error()) + "\n")
	}

	b.WriteString("\n    " + keyHint().Render("j/k navigate  enter start  q quit") + "\n")
	return b.String()
}

func RunLauncher(l Launcher) error {
	_, err := tea.NewProgram(l, tea.WithAltScreen()).Run()
	return err
}
