package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"

	"caldesign/internal/calendar"
	"caldesign/internal/model"
)

// Sheet size of the rendered page in millimetres (A4 portrait). Export
// scales it onto the chosen paper.
const (
	SheetWidthMM  = 210
	SheetHeightMM = 297
)

// CellEventLimit is how many events a day cell lists before "+N more".
const CellEventLimit = 2

// PanelEventLimit is how many events each summary panel lists.
const PanelEventLimit = 4

//go:embed templates/*.html
var templateFS embed.FS

var pageTmpl = template.Must(template.New("calendar.html").Funcs(template.FuncMap{
	"eventColor": func(t model.Template, c model.Category) string { return t.EventColor(c) },
	"safeCSS":    func(s string) template.CSS { return template.CSS(s) },
	"safeURL":    func(s string) template.URL { return template.URL(s) },
	"shortDate":  func(d model.Date) string { return d.Time().Format("Jan 02") },
}).ParseFS(templateFS, "templates/calendar.html"))

// Page is everything the presentation needs besides the layout itself.
type Page struct {
	Layout          calendar.Layout
	Template        model.Template
	WeekendsColored bool

	// CoverURL is a data: URL; empty hides the cover band.
	CoverURL       string
	CoverTransform string
}

// Panel is one summary box under the grid.
type Panel struct {
	Title  string
	Class  string
	Events []model.Event
}

// Panels groups the month's summaries into the three boxes shown under the
// grid, each cut to PanelEventLimit entries.
func Panels(l calendar.Layout) []Panel {
	join := func(cats ...model.Category) []model.Event {
		var out []model.Event
		for _, c := range cats {
			out = append(out, l.Summaries[c]...)
		}
		shown, _ := calendar.Visible(out, PanelEventLimit)
		return shown
	}
	return []Panel{
		{Title: "Events & Celebrations", Class: "teal", Events: join(model.CategoryEvent, model.CategoryCelebration)},
		{Title: "Tech Talks", Class: "blue", Events: join(model.CategoryTechTalk)},
		{Title: "Holidays & Birthdays", Class: "pink", Events: join(model.CategoryHoliday, model.CategoryBirthday)},
	}
}

type viewCell struct {
	calendar.Cell
	Day      int
	Shown    []model.Event
	More     int
	Sunday   bool
	Saturday bool
}

type view struct {
	Page
	Title    string
	Weekdays []string
	Weeks    [][]viewCell
	Panels   []Panel
	WidthMM  int
	HeightMM int
}

func newView(p Page) view {
	v := view{
		Page:     p,
		Title:    p.Layout.Title(),
		Weekdays: calendar.WeekdayLabels(p.Layout.StartDay),
		Panels:   Panels(p.Layout),
		WidthMM:  SheetWidthMM,
		HeightMM: SheetHeightMM,
	}
	for _, week := range p.Layout.Weeks() {
		row := make([]viewCell, 0, 7)
		for _, c := range week {
			shown, more := c.Visible(CellEventLimit)
			wd := c.Date.Weekday()
			row = append(row, viewCell{
				Cell:     c,
				Day:      c.Date.Day,
				Shown:    shown,
				More:     more,
				Sunday:   wd == 0,
				Saturday: wd == 6,
			})
		}
		v.Weeks = append(v.Weeks, row)
	}
	return v
}

// Write renders the page as a standalone HTML document. The root element
// carries data-ready="true" once the document is complete.
func Write(w io.Writer, p Page) error {
	if err := pageTmpl.Execute(w, newView(p)); err != nil {
		return fmt.Errorf("render: execute page: %w", err)
	}
	return nil
}

// HTML renders the page into memory.
func HTML(p Page) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, p); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
