package webui

import (
	"html/template"
	"io"
	"strings"
	"time"

	"github.com/tbourn/go-contacts-backend/internal/domain"
)

// SortOptions are the keys offered by the sort selector, in display order.
var SortOptions = []struct{ Key, Label string }{
	{"name-asc", "Name (A-Z)"},
	{"name-desc", "Name (Z-A)"},
	{"email-asc", "Email (A-Z)"},
	{"email-desc", "Email (Z-A)"},
	{"created_at-desc", "Newest first"},
	{"created_at-asc", "Oldest first"},
}

type pageData struct {
	VM          ViewModel
	Rows        []domain.Contact
	ShowBanner  bool
	Title       string
	SubmitLabel string
	Sorts       []struct{ Key, Label string }
	ConfirmText string
}

var funcs = template.FuncMap{
	"phone": func(p *string) string {
		if p == nil || strings.TrimSpace(*p) == "" {
			return "N/A"
		}
		return *p
	},
	"date": func(t time.Time) string { return t.Format("2006-01-02") },
	"invalid": func(f FieldState) string {
		if f.Invalid() {
			return "error"
		}
		return ""
	},
}

var page = template.Must(template.New("page").Funcs(funcs).Parse(`<!DOCTYPE html>
<html lang="en">
<head><meta charset="utf-8"><title>Contacts</title></head>
<body>
{{- if .ShowBanner}}
<div class="message {{.VM.Banner.Kind}}">{{.VM.Banner.Text}}</div>
{{- end}}
<section class="form">
<h2 id="form-title">{{.Title}}</h2>
<form id="contact-form" method="post" action="/"{{if .VM.EditingID}} data-id="{{.VM.EditingID}}"{{end}}>
{{- if .VM.EditingID}}
<input type="hidden" name="id" value="{{.VM.EditingID}}">
{{- end}}
{{template "view" .VM}}
<label>Name <input name="name" class="{{invalid .VM.Form.Name}}" value="{{.VM.Form.Name.Value}}"></label>
<span class="field-error" id="name-error">{{.VM.Form.Name.Error}}</span>
<label>Email <input name="email" type="email" class="{{invalid .VM.Form.Email}}" value="{{.VM.Form.Email.Value}}"></label>
<span class="field-error" id="email-error">{{.VM.Form.Email.Error}}</span>
<label>Phone <input name="phone" type="tel" class="{{invalid .VM.Form.Phone}}" value="{{.VM.Form.Phone.Value}}"></label>
<span class="field-error" id="phone-error">{{.VM.Form.Phone.Error}}</span>
<button type="submit" id="submit-btn">{{.SubmitLabel}}</button>
{{- if .VM.EditingID}}
<a href="?" id="cancel-btn">Cancel</a>
{{- end}}
</form>
</section>
{{- if .VM.PendingDelete}}
<section class="confirm" id="delete-confirm">
<p>{{.ConfirmText}}</p>
<form method="post" action="/delete/{{.VM.PendingDelete}}">
<input type="hidden" name="confirm" value="yes">
{{- if .VM.EditingID}}
<input type="hidden" name="editing" value="{{.VM.EditingID}}">
{{- end}}
{{template "view" .VM}}
<button type="submit" id="confirm-delete-btn">Delete</button>
<a href="?" id="cancel-delete-btn">Cancel</a>
</form>
</section>
{{- end}}
<section class="list">
<form method="get">
<input name="q" id="search" placeholder="Search by name or email" value="{{.VM.FilterTerm}}">
<select name="sort" id="sort">
{{- range .Sorts}}
<option value="{{.Key}}"{{if eq .Key $.VM.SortKey}} selected{{end}}>{{.Label}}</option>
{{- end}}
</select>
</form>
{{- if .Rows}}
<table id="contacts-table">
<thead><tr><th>Name</th><th>Email</th><th>Phone</th><th>Created</th><th></th></tr></thead>
<tbody>
{{- range .Rows}}
<tr data-id="{{.ID}}">
<td>{{.Name}}</td><td>{{.Email}}</td><td>{{phone .Phone}}</td><td>{{date .CreatedAt}}</td>
<td><a class="edit-btn" href="?edit={{.ID}}">Edit</a> <a class="delete-btn" href="?delete={{.ID}}{{if $.VM.EditingID}}&amp;edit={{$.VM.EditingID}}{{end}}">Delete</a></td>
</tr>
{{- end}}
</tbody>
</table>
{{- else}}
<div class="no-contacts">No contacts found</div>
{{- end}}
</section>
</body>
</html>
{{define "view"}}<input type="hidden" name="q" value="{{.FilterTerm}}"><input type="hidden" name="sort" value="{{.SortKey}}">{{end}}
`))

// Render writes vm as an HTML page. The banner is included only while it is
// visible at now.
func Render(w io.Writer, vm ViewModel, now time.Time) error {
	data := pageData{
		VM:          vm,
		Rows:        vm.Visible(),
		ShowBanner:  vm.Banner.VisibleAt(now),
		Title:       "Add New Contact",
		SubmitLabel: "Add Contact",
		Sorts:       SortOptions,
		ConfirmText: MsgConfirmDelete,
	}
	if vm.Mode == ModeEdit {
		data.Title = "Edit Contact"
		data.SubmitLabel = "Update Contact"
	}
	return page.Execute(w, data)
}
