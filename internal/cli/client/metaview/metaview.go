// Package metaview renders the optional --tui metadata card for `peek` and
// `pull --peek`, adapted from the teacher's internal/modules/textview
// single-screen bubbletea view.
package metaview

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/catppuccin/go"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	zone "github.com/lrstanley/bubblezone"
	"golang.org/x/term"

	"ssh-clipboard/internal/protocol"
)

// msToTime converts the wire's milliseconds-since-epoch timestamp to a
// time.Time for display.
func msToTime(ms int64) time.Time {
	return time.UnixMilli(ms)
}

const quitZoneID = "metaview-quit"

// Card is the metadata shown for one clipboard value.
type Card struct {
	ContentType string
	Size        uint64
	CreatedAt   int64 // ms since epoch, UTC
}

// FromMeta builds a Card from a protocol.Meta reply.
func FromMeta(m protocol.Meta) Card {
	return Card{ContentType: m.ContentType, Size: m.Size, CreatedAt: m.CreatedAt}
}

type model struct {
	card   Card
	zones  *zone.Manager
	width  int
	height int
	sized  bool
	spin   spinner.Model
}

func newModel(card Card, zones *zone.Manager, width, height int) model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color(catppuccin.Mocha.Mauve().Hex))
	return model{card: card, zones: zones, width: width, height: height, spin: spin}
}

func (m model) Init() tea.Cmd {
	return m.spin.Tick
}

// Update waits for the terminal's actual size (reported asynchronously by
// bubbletea as a tea.WindowSizeMsg) before rendering the card, spinning in
// the meantime rather than flashing an unsized, top-left-anchored box.
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.sized = true
		return m, nil
	case spinner.TickMsg:
		if m.sized {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "enter", " ":
			return m, tea.Quit
		}
	case tea.MouseMsg:
		if msg.Action == tea.MouseActionRelease && m.zones.Get(quitZoneID).InBounds(msg) {
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m model) View() string {
	mocha := catppuccin.Mocha

	if !m.sized {
		msg := m.spin.View() + " sizing terminal…"
		if m.width == 0 {
			return msg
		}
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, msg)
	}

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(mocha.Mauve().Hex)).
		Padding(1, 2).
		Margin(1)

	labelStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(mocha.Subtext0().Hex))
	valueStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(mocha.Text().Hex))

	row := func(label, value string) string {
		return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(fmt.Sprintf("%-13s", label)), valueStyle.Render(value))
	}

	body := lipgloss.JoinVertical(lipgloss.Left,
		row("content-type", m.card.ContentType),
		row("size", humanize.Bytes(m.card.Size)),
		row("created", humanize.Time(msToTime(m.card.CreatedAt))),
	)

	quit := m.zones.Mark(quitZoneID, lipgloss.NewStyle().Foreground(lipgloss.Color(mocha.Overlay0().Hex)).Render("press q to exit"))

	card := lipgloss.JoinVertical(lipgloss.Left, body, "", quit)

	// Scan registers the quit zone's position for Update's mouse check and
	// strips the zone markers from the output.
	if m.width == 0 {
		return m.zones.Scan(boxStyle.Render(card))
	}
	return m.zones.Scan(lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, boxStyle.Render(card)))
}

// Show runs the full-screen metadata card until the user dismisses it.
func Show(ctx context.Context, card Card) error {
	width, height, err := term.GetSize(int(os.Stdout.Fd()))
	zones := zone.New()
	m := newModel(card, zones, width, height)
	if err == nil {
		m.sized = true
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}
