package bubbletea

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/fwojciec/pricechat"
	"github.com/fwojciec/pricechat/goldmark"
	"github.com/mattn/go-runewidth"
)

var _ tea.Model = Model{}

const (
	idleHint  = "Enter to send, Ctrl+C to quit"
	busyHint  = "Esc to cancel"
	ellipsis  = "…"
	separator = " · "
)

// Model is the Bubble Tea model for the chat TUI. It renders the snapshots
// published by a pricechat.Chat and turns keys into Submit and Cancel calls.
type Model struct {
	// Input is the text input component. Exported for test access.
	Input textinput.Model
	// Viewport is the scrollable transcript. Exported for test access.
	Viewport viewport.Model
	// Spinner animates the status line while a turn is active.
	Spinner spinner.Model

	chat     pricechat.Chat
	styles   Styles
	renderer *goldmark.Renderer

	snap   pricechat.Snapshot
	blocks []MessageBlock
	// err is the last synchronous rejection from Submit.
	err   error
	ready bool
}

// New creates a TUI Model driving chat.
func New(chat pricechat.Chat, theme pricechat.Theme) Model {
	ti := textinput.New()
	ti.Placeholder = "Ask about house prices..."
	ti.Prompt = ""
	ti.Focus()
	ti.CharLimit = pricechat.MaxQuestionLength

	styles := NewStyles(theme)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(styles.Accent))

	return Model{
		Input:    ti,
		Spinner:  sp,
		chat:     chat,
		styles:   styles,
		renderer: goldmark.NewRenderer(theme),
		snap:     chat.Snapshot(),
	}
}

// Snapshot returns the snapshot the model currently displays.
func (m Model) Snapshot() pricechat.Snapshot { return m.snap }

// Running reports whether a turn is in flight.
func (m Model) Running() bool { return m.snap.State.Active() }

// Err returns the last Submit rejection, if any.
func (m Model) Err() error { return m.err }

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m.handleWindowSize(msg), nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case SnapshotMsg:
		return m.applySnapshot(msg.Snapshot)

	case spinner.TickMsg:
		if !m.Running() {
			return m, nil
		}
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	// Viewport always receives remaining messages for scrolling.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.Viewport, cmd = m.Viewport.Update(msg)
	cmds = append(cmds, cmd)
	if !m.Running() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Initializing..."
	}
	var b strings.Builder
	b.WriteString(m.Viewport.View())
	b.WriteString("\n")
	b.WriteString(m.statusLine(m.Viewport.Width))
	b.WriteString("\n")
	b.WriteString(m.Input.View())
	return b.String()
}

func (m Model) handleWindowSize(msg tea.WindowSizeMsg) Model {
	inputHeight := 1
	statusHeight := 1
	borderHeight := 2 // newlines between sections
	vpHeight := max(msg.Height-inputHeight-statusHeight-borderHeight, 1)

	if !m.ready {
		m.Viewport = viewport.New(msg.Width, vpHeight)
		m.ready = true
	} else {
		m.Viewport.Width = msg.Width
		m.Viewport.Height = vpHeight
	}
	m.Input.Width = msg.Width
	m = m.syncBlocks()
	m.Viewport.SetContent(m.renderContent())
	m.Viewport.GotoBottom()
	return m
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyCtrlC:
		if m.Running() {
			return m.cancel()
		}
		return m, tea.Quit

	case tea.KeyEsc:
		if m.Running() {
			return m.cancel()
		}
		return m, nil

	case tea.KeyEnter:
		if m.Running() {
			return m, nil
		}
		text := strings.TrimSpace(m.Input.Value())
		if text == "" {
			return m, nil
		}
		if err := m.chat.Submit(text); err != nil {
			m.err = err
			return m, nil
		}
		m.err = nil
		m.Input.SetValue("")
		return m.applySnapshot(m.chat.Snapshot())
	}

	// Character keys are typing, not scrolling ('j'/'k' would collide).
	var cmds []tea.Cmd
	var cmd tea.Cmd
	if msg.Type != tea.KeyRunes {
		m.Viewport, cmd = m.Viewport.Update(msg)
		cmds = append(cmds, cmd)
	}
	if !m.Running() {
		m.Input, cmd = m.Input.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

func (m Model) cancel() (tea.Model, tea.Cmd) {
	m.chat.Cancel()
	return m.applySnapshot(m.chat.Snapshot())
}

// applySnapshot shows snap unless a newer one is already displayed.
// Snapshots are delivered asynchronously and may arrive out of order.
func (m Model) applySnapshot(snap pricechat.Snapshot) (Model, tea.Cmd) {
	if snap.Version < m.snap.Version {
		return m, nil
	}
	wasRunning := m.Running()
	m.snap = snap
	m = m.syncBlocks()
	if m.ready {
		m.Viewport.SetContent(m.renderContent())
		m.Viewport.GotoBottom()
	}

	switch running := m.Running(); {
	case running && !wasRunning:
		m.Input.Blur()
		return m, m.Spinner.Tick
	case !running && wasRunning:
		return m, m.Input.Focus()
	}
	return m, nil
}

// syncBlocks brings the blocks in line with the transcript. Existing
// assistant blocks are updated in place so their render cache survives.
func (m Model) syncBlocks() Model {
	msgs := m.snap.Messages
	if len(msgs) < len(m.blocks) {
		m.blocks = nil
	}
	for i, msg := range msgs {
		if i < len(m.blocks) {
			if b, ok := m.blocks[i].(*AssistantTextBlock); ok {
				b.SetContent(msg.Content)
			}
			continue
		}
		switch msg.Role {
		case pricechat.RoleUser:
			m.blocks = append(m.blocks, NewUserMessageBlock(msg.Content, m.styles))
		default:
			b := NewAssistantTextBlock(m.renderer)
			b.SetContent(msg.Content)
			m.blocks = append(m.blocks, b)
		}
	}
	return m
}

func (m Model) renderContent() string {
	width := m.Viewport.Width
	var parts []string
	for _, block := range m.blocks {
		if view := block.View(width); view != "" {
			parts = append(parts, view)
		}
	}
	state := m.snap.State
	switch {
	case state.Phase == pricechat.PhaseClosed && state.Reason == pricechat.CloseCancelled:
		parts = append(parts, m.styles.Warning.Render("[cancelled]"))
	case state.Abnormal() && m.snap.Err != nil:
		parts = append(parts, NewErrorBlock(state.Reason, m.snap.Err, m.styles).View(width))
	}
	return strings.Join(parts, "\n\n")
}

// statusLine summarizes the turn state in a single line of at most width
// columns.
func (m Model) statusLine(width int) string {
	state := m.snap.State
	prefix := ""
	var style lipgloss.Style
	var text string

	switch {
	case m.err != nil:
		style, text = m.styles.Error, fmt.Sprintf("Error: %v", m.err)
	case state.Phase == pricechat.PhaseSending:
		prefix = m.Spinner.View() + " "
		style, text = m.styles.Muted, "Sending..."+separator+busyHint
	case state.Phase == pricechat.PhaseStreaming:
		prefix = m.Spinner.View() + " "
		style, text = m.styles.Muted, "Streaming..."+separator+busyHint
	case state.Phase == pricechat.PhaseClosed:
		switch state.Reason {
		case pricechat.CloseCompleted:
			style, text = m.styles.Success, "Done"+separator+idleHint
		case pricechat.CloseCancelled:
			style, text = m.styles.Warning, "Cancelled"+separator+idleHint
		case pricechat.CloseProtocolError:
			style, text = m.styles.Error, "Protocol error"+separator+idleHint
		default:
			style, text = m.styles.Error, "Network error"+separator+idleHint
		}
	default:
		style, text = m.styles.Muted, idleHint
	}
	if n := m.snap.Malformed; n > 0 && m.err == nil {
		text += separator + fmt.Sprintf("%d malformed frame(s) skipped", n)
	}

	if width > 0 {
		avail := max(width-lipgloss.Width(prefix), 0)
		text = runewidth.Truncate(text, avail, ellipsis)
	}
	return prefix + style.Render(text)
}
