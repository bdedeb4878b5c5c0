package tui

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mergeguard/mergeguard/internal/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("6")).
			Bold(true).
			Padding(0, 1)

	detailBorderStyle = lipgloss.NewStyle().
				BorderStyle(lipgloss.NormalBorder()).
				BorderForeground(lipgloss.Color("240"))

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("7"))

	keyStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("7")).
			Bold(true)
)

// severityText returns plain text for severity (ANSI codes break table truncation).
func severityText(s types.Severity) string {
	return strings.ToUpper(string(s))
}

// Model is the interactive finding browser shown by `mergeguard review`.
type Model struct {
	table    table.Model
	viewport viewport.Model

	filename string
	language string
	source   []string // source split into lines for snippet display

	findings []types.Finding
	filtered []int // indices into findings after search/severity filter

	searchMode  bool
	searchInput textinput.Model
	searchQuery string
	sevFilter   types.Severity

	width    int
	height   int
	ready    bool
	quitting bool
	status   string
}

// NewModel builds the browser over the findings for one reviewed file.
func NewModel(filename, language, source string, findings []types.Finding) Model {
	columns := []table.Column{
		{Title: "Sev", Width: 8},
		{Title: "Line", Width: 6},
		{Title: "Kind", Width: 26},
		{Title: "Source", Width: 16},
		{Title: "Message", Width: 48},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = lipgloss.NewStyle().
		Background(lipgloss.Color("235")).
		Foreground(lipgloss.Color("15")).
		Bold(true).
		Padding(0, 1).
		Align(lipgloss.Left)
	s.Selected = lipgloss.NewStyle().
		Foreground(lipgloss.Color("232")).
		Background(lipgloss.Color("208")).
		Bold(true).
		Padding(0, 1)
	s.Cell = lipgloss.NewStyle().Padding(0, 1)
	t.SetStyles(s)

	ti := textinput.New()
	ti.Placeholder = "Search kind, source, or message..."
	ti.CharLimit = 100
	ti.Width = 50
	ti.Prompt = "/ "
	ti.PromptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	m := Model{
		table:       t,
		filename:    filename,
		language:    language,
		source:      strings.Split(source, "\n"),
		findings:    findings,
		searchInput: ti,
	}
	m.applyFilter()
	return m
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(maxInt(4, msg.Height/2-3))
		m.viewport = viewport.New(msg.Width-4, maxInt(4, msg.Height-m.table.Height()-7))
		m.ready = true
		m.refreshDetail()
		return m, nil

	case tea.KeyMsg:
		if m.searchMode {
			switch msg.String() {
			case "enter":
				m.searchMode = false
				m.searchQuery = m.searchInput.Value()
				m.applyFilter()
			case "esc":
				m.searchMode = false
				m.searchInput.SetValue("")
				m.searchQuery = ""
				m.applyFilter()
			default:
				var cmd tea.Cmd
				m.searchInput, cmd = m.searchInput.Update(msg)
				return m, cmd
			}
			return m, nil
		}

		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case "/":
			m.searchMode = true
			m.searchInput.Focus()
			return m, textinput.Blink
		case "f":
			m.cycleSeverityFilter()
			return m, nil
		case "c":
			return m, m.copyFinding()
		}
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	m.refreshDetail()
	return m, cmd
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}
	if !m.ready {
		return "loading..."
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("mergeguard review: %s (%s)", m.filename, m.language)))
	b.WriteString("\n")
	b.WriteString(m.table.View())
	b.WriteString("\n")
	b.WriteString(detailBorderStyle.Render(m.viewport.View()))
	b.WriteString("\n")

	if m.searchMode {
		b.WriteString(m.searchInput.View())
	} else {
		bar := fmt.Sprintf(" %d/%d findings ", len(m.filtered), len(m.findings))
		if m.sevFilter != "" {
			bar += fmt.Sprintf("[%s] ", m.sevFilter)
		}
		if m.status != "" {
			bar += m.status + " "
		}
		help := keyStyle.Render("/") + " search  " +
			keyStyle.Render("f") + " filter  " +
			keyStyle.Render("c") + " copy  " +
			keyStyle.Render("q") + " quit"
		b.WriteString(statusStyle.Render(bar) + "  " + help)
	}
	return b.String()
}

// applyFilter rebuilds the filtered index set and table rows.
func (m *Model) applyFilter() {
	m.filtered = m.filtered[:0]
	q := strings.ToLower(m.searchQuery)
	for i, f := range m.findings {
		if m.sevFilter != "" && f.Severity != m.sevFilter {
			continue
		}
		if q != "" {
			hay := strings.ToLower(f.Kind + " " + f.Source + " " + f.Message)
			if !strings.Contains(hay, q) {
				continue
			}
		}
		m.filtered = append(m.filtered, i)
	}

	rows := make([]table.Row, len(m.filtered))
	for i, idx := range m.filtered {
		f := m.findings[idx]
		line := "-"
		if f.Line > 0 {
			line = fmt.Sprintf("%d", f.Line)
		}
		rows[i] = table.Row{severityText(f.Severity), line, f.Kind, f.Source, f.Message}
	}
	m.table.SetRows(rows)
	m.table.SetCursor(0)
	m.refreshDetail()
}

func (m *Model) cycleSeverityFilter() {
	order := []types.Severity{"", types.SevCritical, types.SevHigh, types.SevMedium, types.SevLow, types.SevInfo}
	for i, s := range order {
		if s == m.sevFilter {
			m.sevFilter = order[(i+1)%len(order)]
			break
		}
	}
	m.applyFilter()
}

func (m *Model) current() (types.Finding, bool) {
	c := m.table.Cursor()
	if c < 0 || c >= len(m.filtered) {
		return types.Finding{}, false
	}
	return m.findings[m.filtered[c]], true
}

// refreshDetail renders the selected finding with a highlighted snippet.
func (m *Model) refreshDetail() {
	if !m.ready {
		return
	}
	f, ok := m.current()
	if !ok {
		m.viewport.SetContent("No findings match the current filter.")
		return
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s  confidence: %s\n", severityText(f.Severity), f.Kind, f.Confidence)
	fmt.Fprintf(&b, "source: %s\n", f.Source)
	if f.Escalated {
		b.WriteString("escalated: severity raised for machine-generated code\n")
	}
	fmt.Fprintf(&b, "\n%s\n", f.Message)
	for _, k := range sortedKeys(f.Metadata) {
		fmt.Fprintf(&b, "  %s: %s\n", k, f.Metadata[k])
	}
	if snip := m.snippet(f.Line, 3); snip != "" {
		b.WriteString("\n" + snip)
	}
	m.viewport.SetContent(b.String())
	m.viewport.GotoTop()
}

// snippet returns the highlighted source lines around line, with markers.
func (m *Model) snippet(line, context int) string {
	if line <= 0 || line > len(m.source) {
		return ""
	}
	lo := maxInt(1, line-context)
	hi := minInt(len(m.source), line+context)

	var b strings.Builder
	for i := lo; i <= hi; i++ {
		marker := "  "
		if i == line {
			marker = "> "
		}
		fmt.Fprintf(&b, "%s%4d  %s\n", marker, i, highlightLine(m.source[i-1], m.filename))
	}
	return b.String()
}

func (m *Model) copyFinding() tea.Cmd {
	f, ok := m.current()
	if !ok {
		return nil
	}
	text := fmt.Sprintf("%s:%d %s [%s/%s] %s", m.filename, f.Line, f.Kind, f.Severity, f.Confidence, f.Message)
	if err := clipboard.WriteAll(text); err != nil {
		m.status = "clipboard unavailable"
		return nil
	}
	m.status = "copied finding"
	return nil
}

func highlightLine(line, filename string) string {
	lexer := lexers.Match(filename)
	if lexer == nil {
		return line
	}
	lexer = chroma.Coalesce(lexer)

	style := styles.Get("monokai")
	if style == nil {
		style = styles.Fallback
	}
	formatter := formatters.Get("terminal256")
	if formatter == nil {
		return line
	}

	iterator, err := lexer.Tokenise(nil, line)
	if err != nil {
		return line
	}
	var buf bytes.Buffer
	if err := formatter.Format(&buf, style, iterator); err != nil {
		return line
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
