// Package pagereader is an interactive inspector for page files. It
// lists every frame of a file and renders per-page detail: slot
// occupancy, overflow references and the revision chain link.
package pagereader

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"treestore/pkg/debug/ui"
	"treestore/pkg/node"
	"treestore/pkg/page"
	"treestore/pkg/primitives"
	"treestore/pkg/store"
	"treestore/pkg/utils/functools"
)

// frameInfo summarizes one frame of the page file.
type frameInfo struct {
	key  int64
	page page.Page
}

type model struct {
	res         *store.Resource
	snap        *store.Snapshot
	frames      []frameInfo
	currentView string // "menu", "page_view"
	cursor      int
	viewport    viewport.Model
	width       int
	height      int
	err         error
}

// Run opens the page file of res and starts the inspector.
func Run(res *store.Resource) error {
	m := &model{
		res:         res,
		snap:        store.NewSnapshot(res),
		currentView: "menu",
	}
	if err := m.loadFrames(); err != nil {
		return err
	}
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

func (m *model) loadFrames() error {
	keys, err := m.res.File().Keys()
	if err != nil {
		return err
	}
	for _, frameKey := range keys {
		p, err := m.res.File().Read(frameKey, page.Data, m.snap)
		if err != nil {
			return fmt.Errorf("reading frame at %d: %w", frameKey, err)
		}
		m.frames = append(m.frames, frameInfo{key: frameKey, page: p})
	}
	return nil
}

func (m *model) Init() tea.Cmd {
	return nil
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(msg.Width, msg.Height-6)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, ui.CommonKeys.Quit):
			return m, tea.Quit

		case key.Matches(msg, ui.CommonKeys.Up):
			if m.currentView == "menu" && m.cursor > 0 {
				m.cursor--
			} else if m.currentView == "page_view" {
				m.viewport.LineUp(1)
			}

		case key.Matches(msg, ui.CommonKeys.Down):
			if m.currentView == "menu" && m.cursor < len(m.frames)-1 {
				m.cursor++
			} else if m.currentView == "page_view" {
				m.viewport.LineDown(1)
			}

		case key.Matches(msg, ui.CommonKeys.Select):
			if m.currentView == "menu" && len(m.frames) > 0 {
				m.currentView = "page_view"
				m.viewport.SetContent(m.renderPageDetail(m.frames[m.cursor]))
				m.viewport.GotoTop()
			}

		case key.Matches(msg, ui.CommonKeys.Back):
			if m.currentView == "page_view" {
				m.currentView = "menu"
			}
		}
	}
	return m, nil
}

func (m *model) View() string {
	if m.err != nil {
		return ui.RenderError(m.err)
	}

	var body string
	switch m.currentView {
	case "page_view":
		body = m.viewport.View()
	default:
		body = m.renderMenu()
	}

	title := ui.TitleStyle.Render(fmt.Sprintf("Page inspector: %s", m.res.File().Path()))
	status := ui.RenderStatusBar(fmt.Sprintf("%d frames · ↑/↓ move · enter inspect · esc back · q quit", len(m.frames)))
	return lipgloss.JoinVertical(lipgloss.Left, title, body, status)
}

func (m *model) renderMenu() string {
	if len(m.frames) == 0 {
		return ui.ItemStyle.Render("page file is empty")
	}
	lines := make([]string, 0, len(m.frames))
	for i, frame := range m.frames {
		line := fmt.Sprintf("%8d  %s", frame.key, summarize(frame.page))
		if i == m.cursor {
			lines = append(lines, ui.SelectedItemStyle.Render(line))
		} else {
			lines = append(lines, ui.ItemStyle.Render(line))
		}
	}
	return strings.Join(lines, "\n")
}

func summarize(p page.Page) string {
	switch p := p.(type) {
	case *page.KeyValueLeafPage:
		return fmt.Sprintf("leaf  page=%d kind=%s records=%d overflow=%d",
			p.PageKey(), p.Kind(), len(p.Entries()), len(p.OverflowKeys()))
	case *page.OverflowPage:
		return fmt.Sprintf("overflow  %d bytes", len(p.Data()))
	default:
		return fmt.Sprintf("%T", p)
	}
}

func (m *model) renderPageDetail(frame frameInfo) string {
	switch p := frame.page.(type) {
	case *page.KeyValueLeafPage:
		return m.renderLeafDetail(frame.key, p)
	case *page.OverflowPage:
		return ui.DetailStyle.Render(lipgloss.JoinVertical(
			lipgloss.Left,
			ui.LabelStyle.Render("Overflow page"),
			ui.ValueStyle.Render(fmt.Sprintf("key:   %d", frame.key)),
			ui.ValueStyle.Render(fmt.Sprintf("bytes: %d", len(p.Data()))),
		))
	default:
		return ui.ValueStyle.Render(fmt.Sprintf("%T", p))
	}
}

func (m *model) renderLeafDetail(frameKey int64, p *page.KeyValueLeafPage) string {
	lines := []string{
		ui.LabelStyle.Render("Key-value leaf page"),
		ui.ValueStyle.Render(fmt.Sprintf("key:       %d", frameKey)),
		ui.ValueStyle.Render(fmt.Sprintf("page key:  %d", p.PageKey())),
		ui.ValueStyle.Render(fmt.Sprintf("kind:      %s", p.Kind())),
		ui.ValueStyle.Render(fmt.Sprintf("previous:  %d", p.PreviousReferenceKey())),
		ui.ValueStyle.Render(fmt.Sprintf("size:      %d", p.Size())),
		"",
		ui.LabelStyle.Render("Slot occupancy"),
		ui.ValueStyle.Render(m.renderOccupancy(p)),
		"",
		ui.LabelStyle.Render(fmt.Sprintf("Records (%d)", len(p.Entries()))),
	}

	lines = append(lines, functools.Map(p.Entries(), func(e page.Entry) string {
		return ui.ValueStyle.Render(describeRecord(e))
	})...)

	overflowKeys := p.OverflowKeys()
	lines = append(lines, "", ui.LabelStyle.Render(fmt.Sprintf("Overflow references (%d)", len(overflowKeys))))
	lines = append(lines, functools.Map(overflowKeys, func(key primitives.NodeKey) string {
		return ui.ValueStyle.Render(fmt.Sprintf("  %d → page %d", key, p.PageReference(key).Key()))
	})...)

	return ui.DetailStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

// renderOccupancy draws one character per group of 8 slots: '.' for an
// empty group, '+' for a partly occupied one and '#' for a full one, so
// dense pages read as solid bars.
func (m *model) renderOccupancy(p *page.KeyValueLeafPage) string {
	occupied := make([]bool, page.SlotsPerPage)
	for _, e := range p.Entries() {
		occupied[page.SlotOffsetFor(e.Key)] = true
	}
	for _, key := range p.OverflowKeys() {
		occupied[page.SlotOffsetFor(key)] = true
	}

	var b strings.Builder
	for group := 0; group < page.SlotsPerPage; group += 8 {
		n := 0
		for i := group; i < group+8; i++ {
			if occupied[i] {
				n++
			}
		}
		switch {
		case n == 0:
			b.WriteByte('.')
		case n < 8:
			b.WriteByte('+')
		default:
			b.WriteByte('#')
		}
		if (group/8+1)%64 == 0 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func describeRecord(e page.Entry) string {
	desc := fmt.Sprintf("  %d  %s", e.Key, e.Record.Kind())
	if id := e.Record.DeweyID(); id != nil {
		desc += "  dewey=" + id.String()
	}
	if dataNode, ok := e.Record.(*node.DataNode); ok {
		desc += fmt.Sprintf("  %d bytes", len(dataNode.Value()))
	}
	return desc
}
