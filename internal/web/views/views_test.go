package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/a-h/templ"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/roster/internal/core"
)

func render(t *testing.T, c templ.Component) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, c.Render(context.Background(), &buf))
	return buf.String()
}

func TestDirectory(t *testing.T) {
	page := core.Page{
		Records: []core.Record{
			{Name: "<b>Kim</b>", Email: "kim@x.com", Phone: "01012345678",
				Joined: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
				Extra:  core.Extra{{Key: "dept", Value: "eng"}}},
			{Name: "Lee", Email: "lee@x.com", Phone: "01099998888"},
		},
		Total: 12, Page: 2, PageSize: 2,
	}

	out := render(t, Directory(page))
	assert.Contains(t, out, "&lt;b&gt;Kim&lt;/b&gt;")
	assert.NotContains(t, out, "<b>Kim</b>")
	assert.Contains(t, out, "<th>dept</th>")
	assert.Contains(t, out, "<td>eng</td>")
	assert.Contains(t, out, "2020-01-02")
	assert.Contains(t, out, "Page 2 of 6")
	assert.Contains(t, out, "page=1&amp;pageSize=2")
	assert.Contains(t, out, "page=3&amp;pageSize=2")
}

func TestDirectory_Empty(t *testing.T) {
	out := render(t, Directory(core.Page{Page: 1, PageSize: 10}))
	assert.Contains(t, out, "No employees on this page.")
	assert.Contains(t, out, "Page 1 of 1")
	assert.NotContains(t, out, "Next")
}

func TestRows(t *testing.T) {
	extras := []string{"dept", "level"}
	assert.Equal(t,
		"<tr><th>Name</th><th>Email</th><th>Tel</th><th>Joined</th><th>dept</th><th>level</th></tr>",
		render(t, headerRow(extras)))

	r := core.Record{
		Name: "Kim & Lee", Email: "k@x.com", Phone: "010",
		Joined: time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC),
		Extra:  core.Extra{{Key: "level", Value: "3"}},
	}
	assert.Equal(t,
		"<tr><td>Kim &amp; Lee</td><td>k@x.com</td><td>010</td><td>2021-03-04</td><td></td><td>3</td></tr>",
		render(t, recordRow(r, extras)))
}

func TestPager(t *testing.T) {
	first := render(t, pager(core.Page{Page: 1, PageSize: 5, Total: 12}))
	assert.NotContains(t, first, "Previous")
	assert.Contains(t, first, "Page 1 of 3")
	assert.Contains(t, first, "page=2&amp;pageSize=5")

	last := render(t, pager(core.Page{Page: 3, PageSize: 5, Total: 12}))
	assert.Contains(t, last, "Previous")
	assert.NotContains(t, last, "Next")
}

func TestErrorPage(t *testing.T) {
	out := render(t, ErrorPage("Employee not found", "Check the name", "EMP005"))
	assert.Contains(t, out, "<!DOCTYPE html>")
	assert.Contains(t, out, "Employee not found")
	assert.Contains(t, out, "Code: EMP005")
}
