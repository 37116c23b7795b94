// Package webui holds the contact form/list logic of the browser client as
// plain Go values. A ViewModel captures the whole UI state (form mode, the
// loaded contacts, the search term and the sort key); every transition
// returns a new ViewModel, and Render draws one as HTML.
//
// Field checks reuse internal/validation so the form reports exactly what
// the API would.
package webui

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/tbourn/go-contacts-backend/internal/domain"
	"github.com/tbourn/go-contacts-backend/internal/validation"
)

// Mode is the form mode.
type Mode int

const (
	// ModeCreate submits new contacts.
	ModeCreate Mode = iota
	// ModeEdit submits changes to ViewModel.EditingID.
	ModeEdit
)

// Form field names, as used by SetField and ValidateField.
const (
	FieldName  = "name"
	FieldEmail = "email"
	FieldPhone = "phone"
)

// DefaultSortKey orders the list by name, ascending.
const DefaultSortKey = "name-asc"

// FieldState is the value typed into one input and its error text.
type FieldState struct {
	Value string
	Error string
}

// Invalid reports whether the field carries an error marker.
func (f FieldState) Invalid() bool { return f.Error != "" }

// Form is the contact form.
type Form struct {
	Name  FieldState
	Email FieldState
	Phone FieldState
}

// ViewModel is the complete client state.
type ViewModel struct {
	Mode       Mode
	EditingID  int64
	Items      []domain.Contact
	FilterTerm string
	SortKey    string
	Form       Form
	Banner     Banner
	// PendingDelete is the contact awaiting delete confirmation, 0 for none.
	PendingDelete int64
}

// New returns a create-mode view over items.
func New(items []domain.Contact) ViewModel {
	return ViewModel{Items: items, SortKey: DefaultSortKey}
}

// WithItems replaces the loaded contacts.
func (vm ViewModel) WithItems(items []domain.Contact) ViewModel {
	vm.Items = items
	return vm
}

// WithFilter sets the search term.
func (vm ViewModel) WithFilter(term string) ViewModel {
	vm.FilterTerm = term
	return vm
}

// WithSort sets the "<field>-<asc|desc>" sort key; blank selects DefaultSortKey.
func (vm ViewModel) WithSort(key string) ViewModel {
	if strings.TrimSpace(key) == "" {
		key = DefaultSortKey
	}
	vm.SortKey = key
	return vm
}

// Notify shows a banner stamped at now.
func (vm ViewModel) Notify(text string, kind BannerKind, now time.Time) ViewModel {
	vm.Banner = Banner{Text: text, Kind: kind, ShownAt: now}
	return vm
}

// StartEdit switches to edit mode for contact id, filling the form from the
// loaded item with that id. It reports false (and leaves vm unchanged) when
// no loaded item has that id.
func (vm ViewModel) StartEdit(id int64) (ViewModel, bool) {
	i := slices.IndexFunc(vm.Items, func(c domain.Contact) bool { return c.ID == id })
	if i < 0 {
		return vm, false
	}
	c := vm.Items[i]
	vm.Mode = ModeEdit
	vm.EditingID = id
	vm.Form = Form{
		Name:  FieldState{Value: c.Name},
		Email: FieldState{Value: c.Email},
	}
	if c.Phone != nil {
		vm.Form.Phone.Value = *c.Phone
	}
	return vm, true
}

// AskDelete marks contact id as awaiting confirmation. It reports false
// when no loaded item has that id.
func (vm ViewModel) AskDelete(id int64) (ViewModel, bool) {
	if !slices.ContainsFunc(vm.Items, func(c domain.Contact) bool { return c.ID == id }) {
		return vm, false
	}
	vm.PendingDelete = id
	return vm, true
}

// Reset empties the form and returns to create mode.
func (vm ViewModel) Reset() ViewModel {
	vm.Mode = ModeCreate
	vm.EditingID = 0
	vm.Form = Form{}
	return vm
}

// ClearErrors removes every field error.
func (vm ViewModel) ClearErrors() ViewModel {
	vm.Form.Name.Error = ""
	vm.Form.Email.Error = ""
	vm.Form.Phone.Error = ""
	return vm
}

// SetField stores the typed value of field.
func (vm ViewModel) SetField(field, value string) ViewModel {
	if f := vm.field(field); f != nil {
		f.Value = value
	}
	return vm
}

// ValidateField checks one field (as on blur) and records its error text.
func (vm ViewModel) ValidateField(field string) ViewModel {
	f := vm.field(field)
	if f == nil {
		return vm
	}
	switch field {
	case FieldName:
		f.Error = validation.CheckName(f.Value)
	case FieldEmail:
		f.Error = validation.CheckEmail(f.Value)
	case FieldPhone:
		f.Error = validation.CheckPhone(f.Value)
	}
	return vm
}

// ValidateForm checks all fields and reports whether the form is valid.
func (vm ViewModel) ValidateForm() (ViewModel, bool) {
	vm = vm.ValidateField(FieldName).ValidateField(FieldEmail).ValidateField(FieldPhone)
	ok := !vm.Form.Name.Invalid() && !vm.Form.Email.Invalid() && !vm.Form.Phone.Invalid()
	return vm, ok
}

// ApplyServerErrors routes API validation messages onto the fields whose
// name they mention ("Name", "Email" or "Phone", first match wins).
func (vm ViewModel) ApplyServerErrors(errs []string) ViewModel {
	for _, e := range errs {
		switch {
		case strings.Contains(e, "Name"):
			vm.Form.Name.Error = e
		case strings.Contains(e, "Email"):
			vm.Form.Email.Error = e
		case strings.Contains(e, "Phone"):
			vm.Form.Phone.Error = e
		}
	}
	return vm
}

// Input returns the trimmed form values.
func (vm ViewModel) Input() ContactInput {
	return ContactInput{
		Name:  strings.TrimSpace(vm.Form.Name.Value),
		Email: strings.TrimSpace(vm.Form.Email.Value),
		Phone: strings.TrimSpace(vm.Form.Phone.Value),
	}
}

// Visible returns the loaded contacts after filtering and sorting. Items is
// never modified.
func (vm ViewModel) Visible() []domain.Contact {
	return sortContacts(filterContacts(vm.Items, vm.FilterTerm), vm.SortKey)
}

func (vm *ViewModel) field(name string) *FieldState {
	switch name {
	case FieldName:
		return &vm.Form.Name
	case FieldEmail:
		return &vm.Form.Email
	case FieldPhone:
		return &vm.Form.Phone
	}
	return nil
}

var fold = cases.Fold()

// filterContacts keeps contacts whose name or email contains term,
// ignoring case. A blank term keeps everything.
func filterContacts(items []domain.Contact, term string) []domain.Contact {
	term = fold.String(strings.TrimSpace(term))
	if term == "" {
		return slices.Clone(items)
	}
	out := make([]domain.Contact, 0, len(items))
	for _, c := range items {
		if strings.Contains(fold.String(c.Name), term) || strings.Contains(fold.String(c.Email), term) {
			out = append(out, c)
		}
	}
	return out
}

// sortContacts stably sorts by the case-folded value of the key's field and
// reverses the whole result for "desc".
func sortContacts(items []domain.Contact, key string) []domain.Contact {
	field, dir, _ := strings.Cut(key, "-")
	out := slices.Clone(items)
	slices.SortStableFunc(out, func(a, b domain.Contact) int {
		return strings.Compare(sortValue(a, field), sortValue(b, field))
	})
	if dir == "desc" {
		slices.Reverse(out)
	}
	return out
}

// sortTimeLayout is fixed-width so lexical order matches time order.
const sortTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func sortValue(c domain.Contact, field string) string {
	switch field {
	case "name":
		return fold.String(c.Name)
	case "email":
		return fold.String(c.Email)
	case "phone":
		if c.Phone == nil {
			return ""
		}
		return fold.String(*c.Phone)
	case "created_at":
		return c.CreatedAt.UTC().Format(sortTimeLayout)
	case "updated_at":
		return c.UpdatedAt.UTC().Format(sortTimeLayout)
	case "id":
		// zero-padded so lexical order matches numeric order
		return fmt.Sprintf("%020d", c.ID)
	}
	return ""
}
