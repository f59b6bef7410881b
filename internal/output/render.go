package output

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"time"

	"charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/term"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/interview-tracker/tracker-cli/internal/tui"
)

// Renderer handles styled terminal output.
type Renderer struct {
	width  int
	styled bool

	Summary lipgloss.Style
	Muted   lipgloss.Style
	Data    lipgloss.Style
	Error   lipgloss.Style
	Hint    lipgloss.Style
	Warning lipgloss.Style
	Success lipgloss.Style
	Header  lipgloss.Style
}

// NewRenderer creates a renderer for w with the resolved theme. Styling is
// enabled when w is a TTY, or when forceStyled is true.
func NewRenderer(w io.Writer, forceStyled bool) *Renderer {
	return NewRendererWithTheme(w, forceStyled, tui.ResolveTheme())
}

// NewRendererWithTheme creates a renderer with a specific theme.
func NewRendererWithTheme(w io.Writer, forceStyled bool, theme tui.Theme) *Renderer {
	width, tty := terminalInfo(w)
	r := &Renderer{width: width, styled: forceStyled || tty}

	fg := func(c string) lipgloss.Style {
		if !r.styled || c == "" {
			return lipgloss.NewStyle()
		}
		return lipgloss.NewStyle().Foreground(lipgloss.Color(c))
	}

	r.Summary = fg(theme.Primary).Bold(r.styled)
	r.Muted = fg(theme.Muted)
	r.Data = fg(theme.Foreground)
	r.Error = fg(theme.Error).Bold(r.styled)
	r.Hint = fg(theme.Muted).Italic(r.styled)
	r.Warning = fg(theme.Warning)
	r.Success = fg(theme.Success)
	r.Header = fg(theme.Foreground).Bold(r.styled)
	return r
}

// terminalInfo returns the terminal width and whether the writer is a TTY.
func terminalInfo(w io.Writer) (width int, tty bool) {
	width = 80
	if f, ok := w.(*os.File); ok {
		if cols, _, err := term.GetSize(f.Fd()); err == nil && cols >= 40 {
			width = cols
		}
		tty = isTTY(w)
	}
	return width, tty
}

func (w *Writer) writeStyled(v any) error {
	r := NewRenderer(w.opts.Writer, w.opts.Format == FormatStyled)
	switch resp := v.(type) {
	case *Response:
		return r.RenderResponse(w.opts.Writer, resp)
	case *ErrorResponse:
		return r.RenderError(w.opts.Writer, resp)
	default:
		return w.writeJSON(v)
	}
}

// RenderResponse renders a success response to the writer.
func (r *Renderer) RenderResponse(w io.Writer, resp *Response) error {
	var b strings.Builder

	if resp.Summary != "" {
		b.WriteString(r.Summary.Render(resp.Summary))
		b.WriteString("\n\n")
	}

	r.renderData(&b, normalizeData(resp.Data))

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderError renders an error response to the writer.
func (r *Renderer) RenderError(w io.Writer, resp *ErrorResponse) error {
	var b strings.Builder

	b.WriteString(r.Error.Render("Error: " + resp.Error))
	b.WriteString("\n")
	if resp.Hint != "" {
		b.WriteString(r.Hint.Render("Hint: " + resp.Hint))
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// Notice renders a one-line warning, used for out-of-band events like a
// session ending mid-command.
func (r *Renderer) Notice(w io.Writer, msg, hint string) {
	line := r.Warning.Render(msg)
	if hint != "" {
		line += " " + r.Hint.Render(hint)
	}
	fmt.Fprintln(w, line)
}

func (r *Renderer) renderData(b *strings.Builder, data any) {
	switch d := data.(type) {
	case []map[string]any:
		if len(d) == 0 {
			b.WriteString(r.Muted.Render("(no results)"))
			b.WriteString("\n")
			return
		}
		r.renderTable(b, d)
	case map[string]any:
		r.renderObject(b, d)
	case []any:
		if len(d) == 0 {
			b.WriteString(r.Muted.Render("(no results)"))
			b.WriteString("\n")
			return
		}
		for _, item := range d {
			b.WriteString(r.Data.Render("• " + formatCell(item)))
			b.WriteString("\n")
		}
	case string:
		b.WriteString(r.Data.Render(d))
		b.WriteString("\n")
	case nil:
		b.WriteString(r.Muted.Render("(no data)"))
		b.WriteString("\n")
	default:
		b.WriteString(r.Data.Render(fmt.Sprintf("%v", data)))
		b.WriteString("\n")
	}
}

// Column priority for table rendering (lower = higher priority)
var columnPriority = map[string]int{
	"id":             1,
	"company_name":   2,
	"position":       3,
	"username":       2,
	"status":         4,
	"stage":          4,
	"interview_date": 5,
	"scheduled_at":   5,
	"round_number":   5,
	"email":          6,
	"created_at":     8,
	"updated_at":     9,
}

var mutedColumns = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

var skipColumns = map[string]bool{
	"notes":       true,
	"description": true,
	"user":        true,
}

type column struct {
	key      string
	priority int
}

func (r *Renderer) renderTable(b *strings.Builder, data []map[string]any) {
	columns := detectColumns(data)
	if len(columns) == 0 {
		return
	}

	t := table.NewWriter()
	t.SetStyle(table.StyleLight)
	t.Style().Options.DrawBorder = false
	t.Style().Options.SeparateColumns = false
	t.Style().Options.SeparateRows = false
	t.Style().Format.Header = text.FormatDefault
	t.SetAllowedRowLength(r.width)

	header := make(table.Row, len(columns))
	configs := make([]table.ColumnConfig, len(columns))
	for i, col := range columns {
		header[i] = r.Header.Render(formatHeader(col.key))
		configs[i] = table.ColumnConfig{Number: i + 1, WidthMax: 40}
	}
	t.AppendHeader(header)
	t.SetColumnConfigs(configs)

	for _, item := range data {
		row := make(table.Row, len(columns))
		for i, col := range columns {
			cell := formatDateValue(col.key, item[col.key])
			if mutedColumns[col.key] {
				row[i] = r.Muted.Render(cell)
			} else {
				row[i] = r.Data.Render(cell)
			}
		}
		t.AppendRow(row)
	}

	b.WriteString(t.Render())
	b.WriteString("\n")
}

// detectColumns picks scalar columns from the first row, ordered by
// priority then name.
func detectColumns(data []map[string]any) []column {
	if len(data) == 0 {
		return nil
	}
	var cols []column
	for key, val := range data[0] {
		if skipColumns[key] {
			continue
		}
		switch val.(type) {
		case map[string]any, []any, []map[string]any:
			continue
		}
		priority := columnPriority[key]
		if priority == 0 {
			priority = 50
		}
		cols = append(cols, column{key: key, priority: priority})
	}
	sort.Slice(cols, func(i, j int) bool {
		if cols[i].priority != cols[j].priority {
			return cols[i].priority < cols[j].priority
		}
		return cols[i].key < cols[j].key
	})
	return cols
}

func (r *Renderer) renderObject(b *strings.Builder, data map[string]any) {
	var keys []string
	for k, v := range data {
		switch v.(type) {
		case map[string]any, []map[string]any:
			continue
		}
		keys = append(keys, k)
	}
	if len(keys) == 0 {
		b.WriteString(r.Muted.Render("(no data)"))
		b.WriteString("\n")
		return
	}
	sort.Slice(keys, func(i, j int) bool {
		pi, pj := columnPriority[keys[i]], columnPriority[keys[j]]
		if pi == 0 {
			pi = 50
		}
		if pj == 0 {
			pj = 50
		}
		if pi != pj {
			return pi < pj
		}
		return keys[i] < keys[j]
	})

	maxLen := 0
	for _, k := range keys {
		if l := len(formatHeader(k)); l > maxLen {
			maxLen = l
		}
	}
	for _, k := range keys {
		label := r.Muted.Render(fmt.Sprintf("%-*s: ", maxLen, formatHeader(k)))
		value := formatDateValue(k, data[k])
		if mutedColumns[k] {
			value = r.Muted.Render(value)
		} else {
			value = r.Data.Render(value)
		}
		b.WriteString(label + value + "\n")
	}
}

func formatHeader(key string) string {
	words := strings.Fields(strings.ReplaceAll(key, "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// formatScalar formats an ID-like value without float notation.
func formatScalar(val any) string {
	if f, ok := val.(float64); ok && f == float64(int64(f)) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%v", val)
}

func formatCell(val any) string {
	switch v := val.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "yes"
		}
		return "no"
	case float64:
		if v == float64(int64(v)) {
			return fmt.Sprintf("%d", int64(v))
		}
		return fmt.Sprintf("%.2f", v)
	case []any:
		items := make([]string, 0, len(v))
		for _, item := range v {
			items = append(items, formatCell(item))
		}
		return strings.Join(items, ", ")
	case map[string]any:
		for _, k := range []string{"name", "title", "company_name", "id"} {
			if s, ok := v[k]; ok {
				return formatCell(s)
			}
		}
		return fmt.Sprintf("%v", v)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// formatDateValue renders *_at timestamps relative to now and *_date
// values as calendar dates.
func formatDateValue(key string, val any) string {
	str, ok := val.(string)
	if !ok || str == "" || !(strings.HasSuffix(key, "_at") || strings.HasSuffix(key, "_date")) {
		return formatCell(val)
	}

	t, err := time.Parse(time.RFC3339, str)
	if err != nil {
		if t, err = time.Parse("2006-01-02", str); err != nil {
			return str
		}
		return t.Format("Jan 2, 2006")
	}

	diff := time.Since(t)
	switch {
	case diff < 0:
		return t.Format("Jan 2, 2006 15:04")
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return plural(int(diff.Minutes()), "minute") + " ago"
	case diff < 24*time.Hour:
		return plural(int(diff.Hours()), "hour") + " ago"
	case diff < 7*24*time.Hour:
		days := int(diff.Hours() / 24)
		if days == 1 {
			return "yesterday"
		}
		return fmt.Sprintf("%d days ago", days)
	default:
		return t.Format("Jan 2, 2006")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
