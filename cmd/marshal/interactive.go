package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/simplepad/ruby-marshal-go/marshal"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	kindStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4"))

	crumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#98FB98"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

// child is one navigable edge out of the current value.
type child struct {
	label  string
	handle marshal.ValueHandle
}

type browseModel struct {
	arena    *marshal.ValueArena
	filename string

	// trail holds the handles from the root to the current value, trail[0]
	// being the root. crumbs holds the matching edge labels.
	trail  []marshal.ValueHandle
	crumbs []string

	children []child
	cursor   int
	width    int

	jumping bool
	jump    textinput.Model
	errMsg  string
}

func newBrowseModel(arena *marshal.ValueArena, filename string) *browseModel {
	ti := textinput.New()
	ti.Placeholder = "0.1.2"
	ti.Prompt = "jump: "
	ti.Width = 30

	m := &browseModel{
		arena:    arena,
		filename: filename,
		trail:    []marshal.ValueHandle{arena.Root()},
		jump:     ti,
		width:    80,
	}
	m.children = childrenOf(arena, m.current())
	return m
}

func (m *browseModel) current() marshal.ValueHandle {
	return m.trail[len(m.trail)-1]
}

func (m *browseModel) Init() tea.Cmd {
	return nil
}

func (m *browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tea.KeyMsg:
		if m.jumping {
			return m.updateJump(msg)
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit

		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j":
			if m.cursor < len(m.children)-1 {
				m.cursor++
			}

		case "enter", "right", "l":
			m.descend()

		case "esc", "backspace", "left", "h":
			m.ascend()

		case "g":
			m.jumping = true
			m.jump.SetValue("")
			m.jump.Focus()
			return m, textinput.Blink
		}
	}
	return m, nil
}

func (m *browseModel) updateJump(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		m.jumping = false
		m.jump.Blur()
		if err := m.jumpTo(m.jump.Value()); err != nil {
			m.errMsg = err.Error()
		} else {
			m.errMsg = ""
		}
		return m, nil
	case "esc":
		m.jumping = false
		m.jump.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.jump, cmd = m.jump.Update(msg)
	return m, cmd
}

func (m *browseModel) descend() {
	if len(m.children) == 0 || m.cursor >= len(m.children) {
		return
	}
	next := m.children[m.cursor]
	m.trail = append(m.trail, next.handle)
	m.crumbs = append(m.crumbs, next.label)
	m.children = childrenOf(m.arena, next.handle)
	m.cursor = 0
	m.errMsg = ""
}

func (m *browseModel) ascend() {
	if len(m.trail) <= 1 {
		return
	}
	m.trail = m.trail[:len(m.trail)-1]
	m.crumbs = m.crumbs[:len(m.crumbs)-1]
	m.children = childrenOf(m.arena, m.current())
	m.cursor = 0
	m.errMsg = ""
}

// jumpTo walks a dot-separated list of child ordinals from the root.
func (m *browseModel) jumpTo(path string) error {
	trail := []marshal.ValueHandle{m.arena.Root()}
	var crumbs []string
	children := childrenOf(m.arena, trail[0])

	path = strings.TrimSpace(path)
	if path != "" {
		for _, segment := range strings.Split(path, ".") {
			i, err := strconv.Atoi(segment)
			if err != nil {
				return fmt.Errorf("bad path segment %q", segment)
			}
			if i < 0 || i >= len(children) {
				return fmt.Errorf("segment %q out of range, %d children", segment, len(children))
			}
			next := children[i]
			trail = append(trail, next.handle)
			crumbs = append(crumbs, next.label)
			children = childrenOf(m.arena, next.handle)
		}
	}

	m.trail = trail
	m.crumbs = crumbs
	m.children = children
	m.cursor = 0
	return nil
}

func (m *browseModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Marshal Browser"))
	b.WriteString(" ")
	b.WriteString(m.filename)
	b.WriteString("\n\n")

	crumb := "root"
	if len(m.crumbs) > 0 {
		crumb += " > " + strings.Join(m.crumbs, " > ")
	}
	b.WriteString(crumbStyle.Render(crumb))
	b.WriteString("\n")
	b.WriteString(summarize(m.arena, m.current()))
	b.WriteString("\n\n")

	if len(m.children) == 0 {
		b.WriteString(helpStyle.Render("(leaf value)"))
		b.WriteString("\n")
	}
	for i, c := range m.children {
		line := fmt.Sprintf("%s  %s", c.label, kindStyle.Render(summarize(m.arena, c.handle)))
		if m.width > 4 && len(line) > m.width-4 {
			line = line[:m.width-4] + "…"
		}
		if i == m.cursor {
			b.WriteString(selectedStyle.Render("> " + line))
		} else {
			b.WriteString("  " + line)
		}
		b.WriteString("\n")
	}

	b.WriteString("\n")
	if m.jumping {
		b.WriteString(m.jump.View())
		b.WriteString("\n")
		b.WriteString(helpStyle.Render("enter go • esc cancel"))
	} else {
		if m.errMsg != "" {
			b.WriteString(errorStyle.Render(m.errMsg))
			b.WriteString("\n")
		}
		b.WriteString(helpStyle.Render("↑/↓ select • enter descend • esc up • g jump • q quit"))
	}

	return b.String()
}

// summarize renders one value as a single line without descending.
func summarize(arena *marshal.ValueArena, h marshal.ValueHandle) string {
	value, ok := arena.Value(h)
	if !ok {
		return "<invalid handle>"
	}

	switch value := value.(type) {
	case *marshal.NilValue:
		return "nil"
	case *marshal.BoolValue:
		return fmt.Sprintf("%t", value.Value)
	case *marshal.FixnumValue:
		return fmt.Sprintf("Fixnum(%d)", value.Value)
	case *marshal.FloatValue:
		return fmt.Sprintf("Float(%v)", value.Value)
	case *marshal.SymbolValue:
		return fmt.Sprintf("Symbol(:%s)", value.Name)
	case *marshal.StringValue:
		return fmt.Sprintf("String(%q)", truncate(string(value.Data), 40))
	case *marshal.ArrayValue:
		return fmt.Sprintf("Array(%d)", len(value.Elements))
	case *marshal.HashValue:
		if value.Default != nil {
			return fmt.Sprintf("Hash(%d, default)", len(value.Pairs))
		}
		return fmt.Sprintf("Hash(%d)", len(value.Pairs))
	case *marshal.ObjectValue:
		name, ok := marshal.Deref(arena, value.Name)
		if !ok {
			return "Object(<invalid name>)"
		}
		return fmt.Sprintf("Object(%s, %d ivars)", name.Name, len(value.IVars))
	case *marshal.UserDefinedValue:
		name, ok := marshal.Deref(arena, value.Name)
		if !ok {
			return "UserDefined(<invalid name>)"
		}
		return fmt.Sprintf("UserDefined(%s, %d bytes)", name.Name, len(value.Data))
	case *marshal.ClassValue:
		return fmt.Sprintf("Class(%s)", value.Name)
	default:
		return value.Kind().String()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "…"
}

// childrenOf lists the navigable edges out of a value.
func childrenOf(arena *marshal.ValueArena, h marshal.ValueHandle) []child {
	value, ok := arena.Value(h)
	if !ok {
		return nil
	}

	var out []child
	switch value := value.(type) {
	case *marshal.ArrayValue:
		for i, element := range value.Elements {
			out = append(out, child{label: fmt.Sprintf("[%d]", i), handle: element})
		}

	case *marshal.HashValue:
		for i, pair := range value.Pairs {
			out = append(out, child{label: fmt.Sprintf("key %d", i), handle: pair.Key})
			out = append(out, child{label: fmt.Sprintf("val %d", i), handle: pair.Value})
		}
		if value.Default != nil {
			out = append(out, child{label: "default", handle: *value.Default})
		}

	case *marshal.ObjectValue:
		out = append(out, ivarChildren(arena, value.IVars)...)

	case *marshal.StringValue:
		if value.IVars != nil {
			out = append(out, ivarChildren(arena, *value.IVars)...)
		}

	case *marshal.UserDefinedValue:
		if value.IVars != nil {
			out = append(out, ivarChildren(arena, *value.IVars)...)
		}
	}
	return out
}

func ivarChildren(arena *marshal.ValueArena, table marshal.IVarTable) []child {
	out := make([]child, 0, len(table))
	for _, pair := range table {
		label := "<invalid name>"
		if name, ok := marshal.Deref(arena, pair.Name); ok {
			label = string(name.Name)
		}
		out = append(out, child{label: label, handle: pair.Value})
	}
	return out
}

func runInteractive(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("read file: %w", err)
	}
	arena, err := marshal.LoadBytes(data)
	if err != nil {
		return fmt.Errorf("decode: %w", err)
	}

	p := tea.NewProgram(newBrowseModel(arena, filename), tea.WithAltScreen())
	_, err = p.Run()
	return err
}
