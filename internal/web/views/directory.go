package views

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"github.com/JonMunkholm/roster/internal/core"
)

var fixedHeaders = []string{"Name", "Email", "Tel", "Joined"}

// Directory renders one page of employees. Extra fields present on any row
// of the page get their own columns, in first-seen order.
func Directory(page core.Page) templ.Component {
	return Layout("Employee directory", directoryBody(page))
}

func directoryBody(page core.Page) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := fmt.Fprintf(w, `<h1>Employee directory</h1><p class="muted">%d employees</p>`, page.Total); err != nil {
			return err
		}
		if len(page.Records) == 0 {
			if _, err := io.WriteString(w, `<p>No employees on this page.</p>`); err != nil {
				return err
			}
		} else if err := employeeTable(page.Records).Render(ctx, w); err != nil {
			return err
		}
		return pager(page).Render(ctx, w)
	})
}

func employeeTable(records []core.Record) templ.Component {
	extras := extraColumns(records)
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<table><thead>`); err != nil {
			return err
		}
		if err := headerRow(extras).Render(ctx, w); err != nil {
			return err
		}
		if _, err := io.WriteString(w, `</thead><tbody>`); err != nil {
			return err
		}
		for _, r := range records {
			if err := recordRow(r, extras).Render(ctx, w); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</tbody></table>`)
		return err
	})
}

func headerRow(extras []string) templ.Component {
	return row("th", slices.Concat(fixedHeaders, extras))
}

func recordRow(r core.Record, extras []string) templ.Component {
	values := []string{r.Name, r.Email, r.Phone, r.JoinedString()}
	for _, k := range extras {
		v, _ := r.Extra.Get(k)
		values = append(values, v)
	}
	return row("td", values)
}

// row renders one <tr> with every cell escaped.
func row(cell string, values []string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString("<tr>")
		for _, v := range values {
			b.WriteString("<" + cell + ">")
			b.WriteString(templ.EscapeString(v))
			b.WriteString("</" + cell + ">")
		}
		b.WriteString("</tr>")
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func pager(page core.Page) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		total := page.TotalPages()
		var b strings.Builder
		b.WriteString(`<nav class="pager">`)
		if page.Page > 1 {
			fmt.Fprintf(&b, `<a href="%s">Previous</a>`, pageHref(page.Page-1, page.PageSize))
		}
		fmt.Fprintf(&b, `<span>Page %d of %d</span>`, page.Page, max(total, 1))
		if page.Page < total {
			fmt.Fprintf(&b, `<a href="%s">Next</a>`, pageHref(page.Page+1, page.PageSize))
		}
		b.WriteString(`</nav>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func pageHref(page, size int) string {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("pageSize", strconv.Itoa(size))
	return templ.EscapeString("/?" + q.Encode())
}

func extraColumns(records []core.Record) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		for _, k := range r.Extra.Keys() {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	return out
}
