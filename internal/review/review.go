// Package review is the interactive acknowledgement screen: new postings
// are listed, the user marks the ones they have looked at, and the marked
// URLs get committed to the seen state so they stop showing up as new.
package review

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"wardwatch/internal/model"
)

// Lines per posting in the list (title + subtitle + blank separator).
const itemHeight = 3

var (
	borderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("39"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			Padding(0, 1)

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	titleStyle = lipgloss.NewStyle().
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedSubtitleStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("252")).
				Background(lipgloss.Color("24"))

	ackedMarkStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")) // green
)

type reviewModel struct {
	listings []model.Listing
	acked    []bool
	cursor   int
	viewport viewport.Model
	width    int
	height   int
	ready    bool

	confirmed bool
}

func (m reviewModel) Init() tea.Cmd {
	return nil
}

func (m reviewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.confirmed = false
			return m, tea.Quit
		case "enter":
			m.confirmed = true
			return m, tea.Quit
		case "up", "k":
			m.moveCursor(-1)
			return m, nil
		case "down", "j":
			m.moveCursor(1)
			return m, nil
		case " ", "x":
			if len(m.listings) > 0 {
				m.acked[m.cursor] = !m.acked[m.cursor]
				m.recalcContent()
			}
			return m, nil
		case "a":
			m.toggleAll()
			return m, nil
		case "o":
			if len(m.listings) > 0 {
				openURL(m.listings[m.cursor].URL)
			}
			return m, nil
		}

		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *reviewModel) moveCursor(delta int) {
	m.cursor = clamp(m.cursor+delta, 0, max(len(m.listings)-1, 0))
	m.recalcContent()
	m.ensureCursorVisible()
}

func (m *reviewModel) toggleAll() {
	allAcked := true
	for _, a := range m.acked {
		if !a {
			allAcked = false
			break
		}
	}
	for i := range m.acked {
		m.acked[i] = !allAcked
	}
	m.recalcContent()
}

func (m *reviewModel) ensureCursorVisible() {
	cursorTop := m.cursor * itemHeight
	cursorBottom := cursorTop + itemHeight - 1

	if cursorTop < m.viewport.YOffset {
		m.viewport.SetYOffset(cursorTop)
	} else if cursorBottom >= m.viewport.YOffset+m.viewport.Height {
		m.viewport.SetYOffset(cursorBottom - m.viewport.Height + 1)
	}
}

func (m *reviewModel) recalcLayout() {
	// Header (1) + border top/bottom (2) + status bar (1) = 4 lines overhead.
	width := max(m.width-2, 20)
	height := max(m.height-4, 5)

	if !m.ready {
		m.viewport = viewport.New(width, height)
		m.ready = true
	} else {
		m.viewport.Width = width
		m.viewport.Height = height
	}
	m.recalcContent()
}

func (m *reviewModel) recalcContent() {
	m.viewport.SetContent(renderListings(m.listings, m.acked, m.cursor))
}

func (m reviewModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	acked := 0
	for _, a := range m.acked {
		if a {
			acked++
		}
	}

	header := headerStyle.Render(fmt.Sprintf(" New Postings (%d, %d acknowledged)", len(m.listings), acked))
	body := borderStyle.Width(m.viewport.Width).Render(m.viewport.View())
	status := statusBarStyle.Width(m.width).Render(
		" ↑/↓ cursor  space ack  a ack all  o open URL  enter confirm  q abort")

	return header + "\n" + body + "\n" + status
}

func renderListings(listings []model.Listing, acked []bool, cursor int) string {
	if len(listings) == 0 {
		return "  (no new postings)"
	}

	var b strings.Builder
	for i, l := range listings {
		titleSt := titleStyle
		subtitleSt := subtitleStyle
		prefix := "  "
		if i == cursor {
			titleSt = selectedTitleStyle
			subtitleSt = selectedSubtitleStyle
			prefix = "> "
		}

		mark := "[ ] "
		if acked[i] {
			mark = ackedMarkStyle.Render("[x] ")
		}

		b.WriteString(prefix)
		b.WriteString(mark)
		b.WriteString(titleSt.Render(l.Title))
		b.WriteByte('\n')

		sub := l.HospitalID
		if l.JobType != "" {
			sub += " · " + l.JobType
		}
		if l.Location != "" {
			sub += " · " + l.Location
		}
		b.WriteString(prefix)
		b.WriteString("    ")
		b.WriteString(subtitleSt.Render(sub))
		b.WriteByte('\n')

		if i < len(listings)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// Run launches the acknowledgement TUI and returns the URL set of the
// postings the user acknowledged. An aborted session (q/esc) returns an
// empty set so nothing gets committed.
func Run(listings []model.Listing) (map[string]struct{}, error) {
	m := reviewModel{
		listings: listings,
		acked:    make([]bool, len(listings)),
	}

	p := tea.NewProgram(m, tea.WithAltScreen())
	result, err := p.Run()
	if err != nil {
		return nil, err
	}

	final := result.(reviewModel)
	urls := make(map[string]struct{})
	if !final.confirmed {
		return urls, nil
	}
	for i, a := range final.acked {
		if a {
			urls[final.listings[i].URL] = struct{}{}
		}
	}
	return urls, nil
}
