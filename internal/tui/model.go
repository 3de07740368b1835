package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

// Board is the part of the board controller the terminal view drives.
type Board interface {
	View() usecase.BoardView
	Pending(id string) bool
	Load(ctx context.Context) error
	Refresh(ctx context.Context) (bool, error)
	Move(ctx context.Context, req usecase.MoveRequest) (usecase.MoveOutcome, error)
}

const (
	columnWidth = 26
	// Cards fill the column inside its horizontal padding.
	cardWidth  = columnWidth - 2
	textWidth  = cardWidth - 2
	cardHeight = 3

	// pollInterval re-reads the board so that syncs finishing in the
	// background (and their rollbacks) show up without a keypress.
	pollInterval = 750 * time.Millisecond
	toastTTL     = 4 * time.Second
)

type loadedMsg struct{ err error }

type moveDoneMsg struct {
	outcome usecase.MoveOutcome
	err     error
}

type refreshDoneMsg struct {
	reloaded bool
	err      error
}

type pollMsg struct{}

type toastFadeMsg struct{ seq int }

// held is a card picked up for a move, with its current drop target.
type held struct {
	leadID    string
	fromStage string
	fromIndex int
	toCol     int
	toIndex   int
}

// Model is the bubbletea model of the Kanban board.
type Model struct {
	board   Board
	ctx     context.Context
	keys    KeyMap
	help    help.Model
	spinner spinner.Model

	view     usecase.BoardView
	col, row int
	held     *held

	toast    *usecase.Notification
	toastSeq int

	width, height int
}

func NewModel(ctx context.Context, board Board) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	m := Model{
		board:   board,
		ctx:     ctx,
		keys:    DefaultKeyMap,
		help:    help.New(),
		spinner: s,
	}
	m.sync()
	return m
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.load(), poll())
}

func (m Model) load() tea.Cmd {
	board, ctx := m.board, m.ctx
	return func() tea.Msg {
		return loadedMsg{err: board.Load(ctx)}
	}
}

func poll() tea.Cmd {
	return tea.Tick(pollInterval, func(time.Time) tea.Msg { return pollMsg{} })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width

	case tea.KeyMsg:
		return m.handleKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pollMsg:
		m.sync()
		return m, poll()

	case loadedMsg:
		m.sync()
		if msg.err != nil {
			return m, m.showToast(usecase.Notification{Level: usecase.NotifyError, Title: "Load failed", Message: msg.err.Error()})
		}

	case refreshDoneMsg:
		m.sync()
		switch {
		case msg.err != nil:
			return m, m.showToast(usecase.Notification{Level: usecase.NotifyError, Title: "Refresh failed", Message: msg.err.Error()})
		case !msg.reloaded:
			return m, m.showToast(usecase.Notification{Level: usecase.NotifyInfo, Title: "Refresh skipped", Message: "changes are still syncing"})
		}

	case moveDoneMsg:
		m.sync()
		if msg.err != nil {
			return m, m.showToast(usecase.Notification{Level: usecase.NotifyError, Title: "Move rejected", Message: msg.err.Error()})
		}

	case notificationMsg:
		m.sync()
		return m, m.showToast(msg.n)

	case toastFadeMsg:
		if msg.seq == m.toastSeq {
			m.toast = nil
		}
	}
	return m, nil
}

func (m *Model) showToast(n usecase.Notification) tea.Cmd {
	m.toast = &n
	m.toastSeq++
	seq := m.toastSeq
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastFadeMsg{seq: seq} })
}

// sync copies the board and keeps the cursor on an existing card.
func (m *Model) sync() {
	m.view = m.board.View()
	m.col = clamp(m.col, 0, len(m.view.Stages)-1)
	m.row = clamp(m.row, 0, len(m.cards(m.col))-1)
	if m.held != nil {
		m.held.toCol = clamp(m.held.toCol, 0, len(m.view.Stages)-1)
		m.held.toIndex = clamp(m.held.toIndex, 0, m.maxDropIndex(m.held.toCol))
	}
}

func (m Model) stageID(col int) string {
	if col < 0 || col >= len(m.view.Stages) {
		return ""
	}
	return m.view.Stages[col].ID
}

func (m Model) cards(col int) []entity.Lead {
	return m.view.Snapshot.Stages[m.stageID(col)]
}

// maxDropIndex is the last valid target index for the held card in col.
// Its own stage has one slot fewer since the card leaves it first.
func (m Model) maxDropIndex(col int) int {
	n := len(m.cards(col))
	if m.held != nil && m.stageID(col) == m.held.fromStage {
		return n - 1
	}
	return n
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Quit) {
		return m, tea.Quit
	}
	if m.held != nil {
		return m.handleHeldKey(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Up):
		m.row = clamp(m.row-1, 0, len(m.cards(m.col))-1)
	case key.Matches(msg, m.keys.Down):
		m.row = clamp(m.row+1, 0, len(m.cards(m.col))-1)
	case key.Matches(msg, m.keys.Left):
		m.col = clamp(m.col-1, 0, len(m.view.Stages)-1)
		m.row = clamp(m.row, 0, len(m.cards(m.col))-1)
	case key.Matches(msg, m.keys.Right):
		m.col = clamp(m.col+1, 0, len(m.view.Stages)-1)
		m.row = clamp(m.row, 0, len(m.cards(m.col))-1)
	case key.Matches(msg, m.keys.Grab):
		cards := m.cards(m.col)
		ready := m.view.State == usecase.BoardReady || m.view.State == usecase.BoardMutating
		if ready && m.row < len(cards) {
			m.held = &held{
				leadID:    cards[m.row].ID,
				fromStage: m.stageID(m.col),
				fromIndex: m.row,
				toCol:     m.col,
				toIndex:   m.row,
			}
		}
	case key.Matches(msg, m.keys.Refresh):
		board, ctx := m.board, m.ctx
		return m, func() tea.Msg {
			reloaded, err := board.Refresh(ctx)
			return refreshDoneMsg{reloaded: reloaded, err: err}
		}
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	}
	return m, nil
}

func (m Model) handleHeldKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	h := m.held
	switch {
	case key.Matches(msg, m.keys.Cancel):
		m.held = nil
	case key.Matches(msg, m.keys.Up):
		h.toIndex = clamp(h.toIndex-1, 0, m.maxDropIndex(h.toCol))
	case key.Matches(msg, m.keys.Down):
		h.toIndex = clamp(h.toIndex+1, 0, m.maxDropIndex(h.toCol))
	case key.Matches(msg, m.keys.Left):
		h.toCol = clamp(h.toCol-1, 0, len(m.view.Stages)-1)
		h.toIndex = clamp(h.toIndex, 0, m.maxDropIndex(h.toCol))
	case key.Matches(msg, m.keys.Right):
		h.toCol = clamp(h.toCol+1, 0, len(m.view.Stages)-1)
		h.toIndex = clamp(h.toIndex, 0, m.maxDropIndex(h.toCol))
	case key.Matches(msg, m.keys.Drop):
		req := usecase.MoveRequest{
			LeadID:    h.leadID,
			FromStage: h.fromStage,
			FromIndex: h.fromIndex,
			ToStage:   m.stageID(h.toCol),
			ToIndex:   h.toIndex,
		}
		m.held = nil
		m.col, m.row = h.toCol, h.toIndex
		board, ctx := m.board, m.ctx
		return m, func() tea.Msg {
			outcome, err := board.Move(ctx, req)
			return moveDoneMsg{outcome: outcome, err: err}
		}
	}
	return m, nil
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	if m.view.State == usecase.BoardIdle || m.view.State == usecase.BoardLoading {
		b.WriteString(m.spinner.View() + " Loading leads...\n")
	} else {
		b.WriteString(m.renderColumns())
		b.WriteString("\n")
		if n := len(m.view.Unassigned); n > 0 {
			b.WriteString(mutedStyle.Render(fmt.Sprintf("%d lead(s) with an unknown stage are not shown", n)))
			b.WriteString("\n")
		}
	}

	b.WriteString(m.renderToast())
	b.WriteString("\n")
	b.WriteString(m.help.View(m.keys))
	return b.String()
}

func (m Model) renderHeader() string {
	total, value := 0, 0.0
	for _, sm := range m.view.Metrics {
		total += sm.Count
		value += sm.TotalValue
	}
	status := m.view.State.String()
	if m.held != nil {
		status = "moving"
	}
	return titleStyle.Render("Pipeline") + mutedStyle.Render(fmt.Sprintf("%d leads · %s · %s", total, money(value), status))
}

func (m Model) renderColumns() string {
	n := len(m.view.Stages)
	if n == 0 {
		return mutedStyle.Render("No stages configured")
	}
	focus := m.col
	if m.held != nil {
		focus = m.held.toCol
	}
	visible := n
	if m.width > 0 {
		visible = max(1, min(n, m.width/(columnWidth+4)))
	}
	first := clamp(focus-visible/2, 0, n-visible)

	cols := make([]string, 0, visible)
	for c := first; c < first+visible; c++ {
		cols = append(cols, m.renderColumn(c, c == focus))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, cols...)
}

func (m Model) renderColumn(col int, focused bool) string {
	stage := m.view.Stages[col]
	cards := m.cards(col)
	sm := m.view.Metrics[stage.ID]

	lines := []string{
		lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(stage.Color)).Render(truncate(stage.Name, cardWidth)),
		mutedStyle.Render(fmt.Sprintf("%d · %s", sm.Count, money(sm.TotalValue))),
		"",
	}

	dropAt := -1
	if m.held != nil && m.held.toCol == col {
		dropAt = m.held.toIndex
		// Within its own stage the target index counts positions after removal.
		if stage.ID == m.held.fromStage && dropAt >= m.held.fromIndex {
			dropAt++
		}
	}

	first, last := cardWindow(len(cards), m.row, m.cardCapacity())
	if first > 0 {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("↑ %d more", first)))
	}
	for i := first; i < last; i++ {
		if i == dropAt {
			lines = append(lines, dropStyle.Render("▸ drop here"))
		}
		lines = append(lines, m.renderCard(cards[i], col, i))
	}
	if dropAt >= last && dropAt >= len(cards) {
		lines = append(lines, dropStyle.Render("▸ drop here"))
	}
	if last < len(cards) {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("↓ %d more", len(cards)-last)))
	}
	if len(cards) == 0 && dropAt < 0 {
		lines = append(lines, mutedStyle.Render("empty"))
	}

	style := columnStyle
	if focused {
		style = focusedColumnStyle
	}
	return style.Width(columnWidth).Render(strings.Join(lines, "\n"))
}

func (m Model) renderCard(l entity.Lead, col, i int) string {
	title := truncate(l.Name, textWidth)
	detail := l.Company
	if l.DealValue > 0 {
		if detail != "" {
			detail += " · "
		}
		detail += money(l.DealValue)
	}
	if m.board.Pending(l.ID) {
		title = truncate(l.Name, textWidth-2) + " " + pendingStyle.Render("⟳")
	}
	body := title + "\n" + mutedStyle.Render(truncate(detail, textWidth))

	switch {
	case m.held != nil && m.held.leadID == l.ID:
		return grabbedStyle.Width(cardWidth).Render(body)
	case m.held == nil && col == m.col && i == m.row:
		return selectedStyle.Width(cardWidth).Render(body)
	default:
		return cardStyle.Width(cardWidth).Render(body)
	}
}

// cardCapacity is how many cards fit in a column, 0 meaning unbounded.
func (m Model) cardCapacity() int {
	if m.height == 0 {
		return 0
	}
	// Header, column header rows, borders, status and help lines.
	return max(1, (m.height-12)/cardHeight)
}

func (m Model) renderToast() string {
	if m.toast == nil {
		return ""
	}
	style, ok := levelStyles[m.toast.Level]
	if !ok {
		style = levelStyles[usecase.NotifyInfo]
	}
	text := m.toast.Title
	if m.toast.Message != "" {
		text += ": " + m.toast.Message
	}
	if m.width > 0 {
		text = truncate(text, m.width)
	}
	return style.Render(text)
}

// cardWindow returns the [first, last) slice of n cards to render so that
// focus stays visible.
func cardWindow(n, focus, capacity int) (int, int) {
	if capacity <= 0 || n <= capacity {
		return 0, n
	}
	first := clamp(focus-capacity/2, 0, n-capacity)
	return first, first + capacity
}

func clamp(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	return max(lo, min(v, hi))
}

func truncate(s string, width int) string {
	return runewidth.Truncate(s, width, "…")
}

func money(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', 0, 64)
}
