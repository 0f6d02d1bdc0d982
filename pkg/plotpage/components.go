package plotpage

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"io"
)

const maxGridColumns = 4

// ErrUnknownTab is returned by Tabs.Select for an id not in the group.
var ErrUnknownTab = errors.New("unknown tab")

// TabItem represents a single tab in a tab group.
type TabItem struct {
	ID      string
	Label   string
	Content Renderable
}

// Tabs is a group of tab/panel pairs of which exactly one is active while
// the group is non-empty.
type Tabs struct {
	ID     string
	Items  []TabItem
	active int
}

// NewTabs creates a tab group with the first item active.
func NewTabs(id string, items ...TabItem) *Tabs {
	return &Tabs{ID: id, Items: items}
}

// Select makes the item with the given id the active one. Unknown ids leave
// the group unchanged.
func (t *Tabs) Select(id string) error {
	for i, item := range t.Items {
		if item.ID == id {
			t.active = i

			return nil
		}
	}

	return fmt.Errorf("%w: %q in group %q", ErrUnknownTab, id, t.ID)
}

// ActiveID returns the id of the active item, or "" for an empty group.
func (t *Tabs) ActiveID() string {
	if len(t.Items) == 0 {
		return ""
	}

	return t.Items[t.activeIndex()].ID
}

// activeIndex clamps the stored index in case Items shrank after Select.
func (t *Tabs) activeIndex() int {
	if t.active < 0 || t.active >= len(t.Items) {
		return 0
	}

	return t.active
}

// Render writes the tab bar and panels. The active pair carries the
// "active" class, all others "inactive"; the page script swaps them on click.
func (t *Tabs) Render(w io.Writer) error {
	if len(t.Items) == 0 {
		return nil
	}

	active := t.activeIndex()
	items := make([]tabItemData, len(t.Items))

	for i, item := range t.Items {
		content, err := renderComponent(item.Content)
		if err != nil {
			return fmt.Errorf("rendering tab %s: %w", item.ID, err)
		}

		items[i] = tabItemData{
			ID:      item.ID,
			Label:   item.Label,
			Active:  i == active,
			Content: content,
		}
	}

	return writeTemplate(w, "tabs.html", tabsData{ID: t.ID, Items: items})
}

// Text renders escaped plain text.
type Text struct {
	Content string
}

// NewText creates a new text block.
func NewText(content string) *Text {
	return &Text{Content: content}
}

// Render writes the text content.
func (t *Text) Render(w io.Writer) error {
	_, err := io.WriteString(w, template.HTMLEscapeString(t.Content))
	if err != nil {
		return fmt.Errorf("writing text: %w", err)
	}

	return nil
}

// Tone selects the colour of an Alert.
type Tone string

// Alert tones.
const (
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneWarning Tone = "warning"
	ToneError   Tone = "error"
)

// Alert renders a coloured notification box.
type Alert struct {
	Title   string
	Message string
	Tone    Tone
}

// NewAlert creates a new alert.
func NewAlert(title, message string, tone Tone) *Alert {
	return &Alert{Title: title, Message: message, Tone: tone}
}

// Render writes the alert HTML.
func (a *Alert) Render(w io.Writer) error {
	return writeTemplate(w, "alert.html", alertData{
		Title:   a.Title,
		Message: a.Message,
		Classes: a.classes(),
	})
}

func (a *Alert) classes() string {
	switch a.Tone {
	case ToneSuccess:
		return "bg-emerald-50 border-emerald-500 text-emerald-800 dark:bg-emerald-950 dark:text-emerald-200"
	case ToneWarning:
		return "bg-amber-50 border-amber-500 text-amber-800 dark:bg-amber-950 dark:text-amber-200"
	case ToneError:
		return "bg-rose-50 border-rose-500 text-rose-800 dark:bg-rose-950 dark:text-rose-200"
	case ToneInfo:
		return "bg-sky-50 border-sky-500 text-sky-800 dark:bg-sky-950 dark:text-sky-200"
	default:
		return "bg-slate-50 border-slate-500 text-slate-800 dark:bg-slate-900 dark:text-slate-200"
	}
}

// Stat renders a labelled figure.
type Stat struct {
	Label string
	Value string
}

// NewStat creates a new stat display.
func NewStat(label, value string) *Stat {
	return &Stat{Label: label, Value: value}
}

// Render writes the stat HTML.
func (s *Stat) Render(w io.Writer) error {
	return writeTemplate(w, "stat.html", statData{Label: s.Label, Value: s.Value})
}

// Grid renders a responsive grid layout.
type Grid struct {
	Columns int
	Items   []Renderable
}

// NewGrid creates a grid with 1 to 4 columns.
func NewGrid(columns int, items ...Renderable) *Grid {
	columns = max(1, min(columns, maxGridColumns))

	return &Grid{Columns: columns, Items: items}
}

// Render writes the grid HTML.
func (g *Grid) Render(w io.Writer) error {
	colClass := map[int]string{
		1: "grid-cols-1",
		2: "grid-cols-1 md:grid-cols-2",
		3: "grid-cols-1 md:grid-cols-3",
		4: "grid-cols-2 md:grid-cols-4",
	}[g.Columns]

	items := make([]template.HTML, 0, len(g.Items))

	for i, item := range g.Items {
		html, err := renderComponent(item)
		if err != nil {
			return fmt.Errorf("rendering grid item %d: %w", i, err)
		}

		items = append(items, html)
	}

	return writeTemplate(w, "grid.html", gridData{ColClass: colClass, Items: items})
}

// Form is a single-field GET form, used to ask for an article title.
type Form struct {
	Action      string
	Name        string
	Value       string
	Placeholder string
	Button      string
}

// Render writes the form HTML.
func (f *Form) Render(w io.Writer) error {
	return writeTemplate(w, "form.html", formData(*f))
}

func renderComponent(r Renderable) (template.HTML, error) {
	if r == nil {
		return "", nil
	}

	var buf bytes.Buffer

	err := r.Render(&buf)
	if err != nil {
		return "", err
	}

	return template.HTML(buf.String()), nil //nolint:gosec // component output is escaped by its template.
}

func writeTemplate(w io.Writer, name string, data any) error {
	html, err := renderTemplate(name, data)
	if err != nil {
		return err
	}

	_, err = io.WriteString(w, string(html))
	if err != nil {
		return fmt.Errorf("writing %s: %w", name, err)
	}

	return nil
}
