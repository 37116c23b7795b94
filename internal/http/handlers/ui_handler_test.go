package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/tbourn/go-contacts-backend/internal/domain"
	"github.com/tbourn/go-contacts-backend/internal/webui"
)

func pageItems() []domain.Contact {
	phone := "5551234567"
	now := time.Now().UTC()
	return []domain.Contact{
		{ID: 1, Name: "Zed", Email: "zed@x.io", Phone: &phone, CreatedAt: now},
		{ID: 2, Name: "amy", Email: "amy@y.io", CreatedAt: now},
	}
}

func TestContactsPage_ListsAndFilters(t *testing.T) {
	r := newEngine(stubContactSvc{items: pageItems()})

	w := do(r, http.MethodGet, "/", "")
	if w.Code != http.StatusOK || !strings.HasPrefix(w.Header().Get("Content-Type"), "text/html") {
		t.Fatalf("status=%d ct=%q", w.Code, w.Header().Get("Content-Type"))
	}
	body := w.Body.String()
	if strings.Index(body, "amy@y.io") > strings.Index(body, "zed@x.io") {
		t.Fatalf("expected name-asc order")
	}
	if !strings.Contains(body, "<td>N/A</td>") {
		t.Fatalf("missing phone fallback")
	}

	body = do(r, http.MethodGet, "/?q=ZED&sort=name-desc", "").Body.String()
	if strings.Contains(body, "amy@y.io") || !strings.Contains(body, "zed@x.io") {
		t.Fatalf("filter not applied")
	}
}

func TestContactsPage_EditMode(t *testing.T) {
	r := newEngine(stubContactSvc{items: pageItems()})

	body := do(r, http.MethodGet, "/?edit=1", "").Body.String()
	if !strings.Contains(body, "Edit Contact") || !strings.Contains(body, `value="5551234567"`) {
		t.Fatalf("edit form not populated")
	}

	body = do(r, http.MethodGet, "/?edit=99", "").Body.String()
	if !strings.Contains(body, "Add New Contact") {
		t.Fatalf("unknown id should keep create mode")
	}
}

func TestContactsPage_LoadFailureBanner(t *testing.T) {
	r := newEngine(stubContactSvc{err: errors.New("down")})
	body := do(r, http.MethodGet, "/", "").Body.String()
	if !strings.Contains(body, webui.MsgLoadFailed) || !strings.Contains(body, `class="no-contacts"`) {
		t.Fatalf("expected banner and empty state:\n%s", body)
	}
}

func postForm(r http.Handler, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func annForm() url.Values {
	return url.Values{"name": {" Ann "}, "email": {"ann@x.io"}, "phone": {"5551234567"}}
}

func mustContain(t *testing.T, body string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %q in:\n%s", want, body)
		}
	}
}

func TestSubmitContactForm_Creates(t *testing.T) {
	r := newRealEngine(t)

	w := postForm(r, "/", annForm())
	if w.Code != http.StatusOK {
		t.Fatalf("status=%d", w.Code)
	}
	body := w.Body.String()
	mustContain(t, body, webui.MsgCreated, "Add New Contact", "<td>Ann</td>", `name="name" class="" value=""`)

	list := decode[[]domain.Contact](t, do(r, http.MethodGet, "/api/contacts", ""))
	if len(list) != 1 || list[0].Name != "Ann" {
		t.Fatalf("stored = %+v", list)
	}
}

func TestSubmitContactForm_InvalidKeepsValues(t *testing.T) {
	r := newRealEngine(t)

	form := annForm()
	form.Set("name", "  ")
	form.Set("phone", "123")
	body := postForm(r, "/", form).Body.String()
	mustContain(t, body, webui.MsgFixForm, "Name is required", "Phone must be 10 to 15 digits", `value="ann@x.io"`)

	if list := decode[[]domain.Contact](t, do(r, http.MethodGet, "/api/contacts", "")); len(list) != 0 {
		t.Fatalf("invalid form stored %+v", list)
	}
}

func TestSubmitContactForm_DuplicateEmail(t *testing.T) {
	r := newRealEngine(t)
	if w := postForm(r, "/", annForm()); w.Code != http.StatusOK {
		t.Fatalf("seed: %d", w.Code)
	}

	form := annForm()
	form.Set("name", "Other")
	body := postForm(r, "/", form).Body.String()
	mustContain(t, body, `<div class="message error">Email already exists</div>`,
		`<span class="field-error" id="email-error">Email already exists</span>`, `value="Other"`)
}

func TestSubmitContactForm_Updates(t *testing.T) {
	r := newRealEngine(t)
	c := decode[domain.Contact](t, do(r, http.MethodPost, "/api/contacts", annBody))

	form := url.Values{
		"id":    {fmt.Sprint(c.ID)},
		"name":  {"Renamed"},
		"email": {c.Email},
		"phone": {"5559876543"},
	}
	body := postForm(r, "/", form).Body.String()
	mustContain(t, body, webui.MsgUpdated, "Add New Contact", "<td>Renamed</td>")

	got := decode[domain.Contact](t, do(r, http.MethodGet, fmt.Sprintf("/api/contacts/%d", c.ID), ""))
	if got.Name != "Renamed" || got.Phone == nil || *got.Phone != "5559876543" {
		t.Fatalf("updated = %+v", got)
	}
}

func TestSubmitContactForm_UpdateOfMissingContact(t *testing.T) {
	r := newRealEngine(t)

	form := annForm()
	form.Set("id", "42")
	body := postForm(r, "/", form).Body.String()
	mustContain(t, body, `<div class="message error">Contact not found</div>`, "Edit Contact", `value="42"`)

	if w := postForm(r, "/", url.Values{"id": {"x"}}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", w.Code)
	}
}

func TestDeleteContactForm_ConfirmFlow(t *testing.T) {
	r := newRealEngine(t)
	c := decode[domain.Contact](t, do(r, http.MethodPost, "/api/contacts", annBody))
	item := fmt.Sprintf("/api/contacts/%d", c.ID)
	action := fmt.Sprintf("/delete/%d", c.ID)

	body := do(r, http.MethodGet, fmt.Sprintf("/?delete=%d", c.ID), "").Body.String()
	mustContain(t, body, webui.MsgConfirmDelete, fmt.Sprintf(`action=%q`, action))

	// without confirmation nothing is removed
	body = postForm(r, action, url.Values{}).Body.String()
	if strings.Contains(body, webui.MsgDeleted) {
		t.Fatalf("declined delete removed the contact")
	}
	if w := do(r, http.MethodGet, item, ""); w.Code != http.StatusOK {
		t.Fatalf("contact gone after declined delete: %d", w.Code)
	}

	body = postForm(r, action, url.Values{"confirm": {"yes"}, "editing": {fmt.Sprint(c.ID)}}).Body.String()
	mustContain(t, body, webui.MsgDeleted, "Add New Contact", `class="no-contacts"`)
	if w := do(r, http.MethodGet, item, ""); w.Code != http.StatusNotFound {
		t.Fatalf("contact still there: %d", w.Code)
	}

	body = postForm(r, action, url.Values{"confirm": {"yes"}}).Body.String()
	mustContain(t, body, `<div class="message error">Contact not found</div>`)

	if w := postForm(r, "/delete/abc", url.Values{"confirm": {"yes"}}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad id: %d", w.Code)
	}
}

func TestPageForms_KeepSearchAndSort(t *testing.T) {
	r := newRealEngine(t)

	form := annForm()
	form.Set("q", "ann")
	form.Set("sort", "email-desc")
	body := postForm(r, "/", form).Body.String()
	mustContain(t, body, `name="q" value="ann"`, `<option value="email-desc" selected>`)
}

func TestSubmitContactForm_ServiceFailure(t *testing.T) {
	r := newEngine(stubContactSvc{err: errors.New("disk I/O error")})
	body := postForm(r, "/", annForm()).Body.String()
	mustContain(t, body, `<div class="message error">disk I/O error</div>`)
}
