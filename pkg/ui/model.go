// Package ui is the interactive terminal client: a query input, the graph
// canvas with pan/zoom/drag, the raw JSON results view, and the stats line.
// The protocol state machine lives in graphview; this package only draws
// what it is told and forwards user intent back to it.
package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vanderheijden86/graphpane/pkg/debug"
	"github.com/vanderheijden86/graphpane/pkg/graphview"
	"github.com/vanderheijden86/graphpane/pkg/layout"
	"github.com/vanderheijden86/graphpane/pkg/metrics"
	"github.com/vanderheijden86/graphpane/pkg/msg"
)

// Messages the surface feeds into the program.
type (
	titleMsg      string
	queryTextMsg  string
	stateMsg      graphview.State
	jsonMsg       string
	statsMsg      string
	errorTextMsg  string
	graphMsg      *graphview.Graph
	clearGraphMsg struct{}
	frameMsg      struct{}
	physicsMsg    layout.Config
)

// focus represents which UI element has keyboard focus.
type focus int

const (
	focusInput focus = iota
	focusCanvas
	focusHelp
)

const (
	headerRows = 4 // title line plus bordered input
	footerRows = 2 // stats line plus key hints
	panStep    = 4.0
	zoomStep   = 1.2
)

// Model is the bubbletea model for the interactive client.
type Model struct {
	theme Theme
	view  *graphview.View

	input    textinput.Model
	jsonView viewport.Model
	spin     spinner.Model

	renderer *graphview.Renderer
	camera   *graphview.Camera

	width  int
	height int
	ready  bool

	focus     focus
	title     string
	stats     string
	errText   string
	jsonText  string
	state     graphview.State
	hasGraph  bool
	flash     string
	helpView  string
	dragging  int
	camInited bool
}

// NewModel builds the model around an attached graphview.View. The renderer
// is shared with the surface wiring in Run so simulation frames reach the
// screen.
func NewModel(view *graphview.View, renderer *graphview.Renderer, theme Theme) Model {
	input := textinput.New()
	input.Placeholder = "g.V().limit(50)"
	input.Prompt = "query> "
	input.Focus()

	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(ColorPrimary)

	return Model{
		theme:    theme,
		view:     view,
		input:    input,
		spin:     spin,
		renderer: renderer,
		camera:   graphview.NewCamera(),
		dragging: -1,
		title:    "graphpane",
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, m.spin.Tick)
}

// Update implements tea.Model.
func (m Model) Update(teaMsg tea.Msg) (tea.Model, tea.Cmd) {
	switch v := teaMsg.(type) {
	case tea.WindowSizeMsg:
		m.width = v.Width
		m.height = v.Height
		m.jsonView = viewport.New(v.Width, m.canvasHeight())
		m.jsonView.SetContent(m.jsonText)
		m.ready = true
		if !m.camInited {
			m.resetCamera()
			m.camInited = true
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(v)

	case tea.MouseMsg:
		return m.handleMouse(v)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(v)
		return m, cmd

	case titleMsg:
		m.title = string(v)
		return m, nil

	case queryTextMsg:
		m.input.SetValue(string(v))
		m.input.CursorEnd()
		return m, nil

	case stateMsg:
		m.state = graphview.State(v)
		if m.state != graphview.StateError {
			m.errText = ""
		}
		return m, nil

	case jsonMsg:
		m.jsonText = string(v)
		if m.ready {
			m.jsonView.SetContent(m.jsonText)
			m.jsonView.GotoTop()
		}
		return m, nil

	case statsMsg:
		m.stats = string(v)
		return m, nil

	case errorTextMsg:
		m.errText = string(v)
		return m, nil

	case graphMsg:
		m.hasGraph = true
		m.renderer.Display((*graphview.Graph)(v))
		if m.ready {
			m.resetCamera()
		}
		return m, nil

	case clearGraphMsg:
		m.hasGraph = false
		m.renderer.Clear()
		return m, nil

	case physicsMsg:
		m.renderer.SetConfig(layout.Config(v))
		m.flash = "physics reloaded"
		return m, nil

	case frameMsg:
		// A simulation tick happened; returning triggers a redraw.
		return m, nil
	}

	return m, nil
}

func (m Model) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}

	if m.focus == focusHelp {
		switch key.String() {
		case "esc", "q", "?":
			m.focus = focusCanvas
		}
		return m, nil
	}

	if m.focus == focusInput {
		switch key.Type {
		case tea.KeyEnter:
			text := strings.TrimSpace(m.input.Value())
			if text != "" {
				m.flash = ""
				m.view.RunQuery(text)
			}
			return m, nil
		case tea.KeyEsc, tea.KeyTab:
			m.focus = focusCanvas
			m.input.Blur()
			m.view.SetQueryText(m.input.Value())
			return m, nil
		}
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(key)
		return m, cmd
	}

	// Canvas focus.
	switch key.String() {
	case "q":
		return m, tea.Quit
	case "tab", "i", "/":
		m.focus = focusInput
		m.input.Focus()
		return m, textinput.Blink
	case "v":
		if m.view.ViewMode() == msg.ViewGraph {
			m.view.SetViewMode(msg.ViewJSON)
		} else {
			m.view.SetViewMode(msg.ViewGraph)
		}
		return m, nil
	case "?":
		m.focus = focusHelp
		return m, nil
	case "c", "y":
		if m.jsonText != "" {
			if err := clipboard.WriteAll(m.jsonText); err != nil {
				debug.Log("ui: clipboard: %v", err)
				m.flash = "copy failed"
			} else {
				m.flash = "results copied"
			}
		}
		return m, nil
	case "r":
		m.resetCamera()
		return m, nil
	case "+", "=":
		m.camera.ZoomBy(zoomStep, float64(m.width)/2, float64(m.canvasHeight())/2)
		return m, nil
	case "-", "_":
		m.camera.ZoomBy(1/zoomStep, float64(m.width)/2, float64(m.canvasHeight())/2)
		return m, nil
	}

	if m.view.ViewMode() == msg.ViewJSON {
		var cmd tea.Cmd
		m.jsonView, cmd = m.jsonView.Update(key)
		return m, cmd
	}

	// Keyboard pan, disabled while a mouse gesture owns the camera.
	if !m.camera.Active() {
		switch key.String() {
		case "left", "h":
			m.camera.OffsetX += panStep
		case "right", "l":
			m.camera.OffsetX -= panStep
		case "up", "k":
			m.camera.OffsetY += panStep
		case "down", "j":
			m.camera.OffsetY -= panStep
		}
	}
	return m, nil
}

func (m Model) handleMouse(mouse tea.MouseMsg) (tea.Model, tea.Cmd) {
	if m.view.ViewMode() != msg.ViewGraph || !m.hasGraph {
		return m, nil
	}
	col := mouse.X
	row := mouse.Y - headerRows
	if row < 0 {
		return m, nil
	}

	switch mouse.Button {
	case tea.MouseButtonWheelUp:
		m.camera.ZoomBy(zoomStep, float64(col), float64(row)/cellAspect)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.camera.ZoomBy(1/zoomStep, float64(col), float64(row)/cellAspect)
		return m, nil
	}

	switch mouse.Action {
	case tea.MouseActionPress:
		if mouse.Button != tea.MouseButtonLeft {
			return m, nil
		}
		_, points := m.renderer.Frame()
		if node := NodeAt(m.camera, points, col, row); node >= 0 {
			if m.camera.BeginDrag(node, float64(col), float64(row)/cellAspect) {
				m.dragging = node
			}
		} else {
			m.camera.BeginPan(float64(col), float64(row)/cellAspect)
		}

	case tea.MouseActionMotion:
		node, pos, moved := m.camera.Move(float64(col), float64(row)/cellAspect)
		if moved && node >= 0 {
			m.renderer.Pin(node, pos)
		}

	case tea.MouseActionRelease:
		if m.dragging >= 0 {
			m.renderer.Unpin(m.dragging)
			m.dragging = -1
		}
		m.camera.End()
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "loading..."
	}
	defer metrics.Timer(metrics.UIRender)()

	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteByte('\n')
	b.WriteString(m.renderBody())
	b.WriteByte('\n')
	b.WriteString(m.renderFooter())
	return b.String()
}

func (m Model) renderHeader() string {
	title := m.theme.Title.Render(m.title)
	mode := m.theme.StatusBar.Render(fmt.Sprintf("[%s]", m.view.ViewMode()))
	gap := m.width - lipgloss.Width(title) - lipgloss.Width(mode)
	if gap < 1 {
		gap = 1
	}
	line := title + strings.Repeat(" ", gap) + mode
	inputBox := m.theme.InputBox.Width(m.width - 2).Render(m.input.View())
	return line + "\n" + inputBox
}

func (m Model) renderBody() string {
	h := m.canvasHeight()

	if m.focus == focusHelp {
		return m.renderHelp(h)
	}

	switch m.state {
	case graphview.StateQuerying:
		text := m.spin.View() + " running query..."
		return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, text)
	case graphview.StateError:
		panel := m.theme.Error.Width(min(m.width-4, 80)).Render(m.errText)
		return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, panel)
	case graphview.StateEmpty:
		hint := m.theme.Help.Render("enter a query and press enter")
		return lipgloss.Place(m.width, h, lipgloss.Center, lipgloss.Center, hint)
	}

	if m.view.ViewMode() == msg.ViewGraph && m.hasGraph {
		g, points := m.renderer.Frame()
		if g != nil {
			canvas := NewCanvas(m.width, h)
			canvas.Draw(g, points, m.camera)
			return canvas.Render(m.theme)
		}
	}
	m.jsonView.Height = h
	return m.jsonView.View()
}

func (m Model) renderFooter() string {
	stats := m.theme.Stats.Render(m.stats)
	if m.flash != "" {
		stats += m.theme.Help.Render("  " + m.flash)
	}
	hints := "tab: edit query  v: view  +/-: zoom  r: reset  c: copy  ?: help  q: quit"
	return stats + "\n" + m.theme.Help.Render(truncateLine(hints, m.width))
}

func (m Model) canvasHeight() int {
	h := m.height - headerRows - footerRows - 1
	if h < 3 {
		h = 3
	}
	return h
}

// resetCamera centers the layout origin and picks a zoom that fits typical
// force-layout spans into the visible cells.
func (m *Model) resetCamera() {
	m.camera.Reset()
	m.camera.Zoom = 0.12
	m.camera.OffsetX = float64(m.width) / 2
	m.camera.OffsetY = float64(m.canvasHeight()) / (2 * cellAspect)
}

func truncateLine(s string, width int) string {
	if width <= 0 || lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	if len(runes) > width {
		runes = runes[:width]
	}
	return string(runes)
}
