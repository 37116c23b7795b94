// Package validation checks contact payloads. The rules are shared by the
// HTTP service layer and the client-side form mirror in internal/webui, so
// both tiers report identical messages.
//
// Rules (errors are reported in the order name, email, phone):
//   - name must be a string that is not blank after trimming;
//   - email must be a non-blank string shaped like local@domain.tld;
//   - phone must be present and its digit-only projection must hold
//     MinPhoneDigits..MaxPhoneDigits digits.
package validation

import (
	"bytes"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// Error messages returned by Validate.
const (
	MsgNameRequired  = "Name is required"
	MsgEmailRequired = "Email is required"
	MsgEmailInvalid  = "Email is not valid"
	MsgPhoneRequired = "Phone is required"
	MsgPhoneDigits   = "Phone must be 10 to 15 digits"
)

// Phone digit-count bounds (inclusive).
const (
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

var (
	emailRE   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	nonDigits = regexp.MustCompile(`\D`)
)

// Field is one member of a decoded JSON object. Present is false when the key
// was absent from the body; an explicit null is Present with a nil Value.
type Field struct {
	Value   any
	Present bool
}

// UnmarshalJSON records presence and decodes the raw value. Numbers decode
// to float64, mirroring how browsers hand them over.
func (f *Field) UnmarshalJSON(b []byte) error {
	f.Present = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		f.Value = nil
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	f.Value = v
	return nil
}

// MarshalJSON writes the value (null when absent).
func (f Field) MarshalJSON() ([]byte, error) {
	return json.Marshal(f.Value)
}

// String returns a present Field holding s.
func String(s string) Field { return Field{Value: s, Present: true} }

// Payload is the body of a create or update request.
type Payload struct {
	Name  Field `json:"name"`
	Email Field `json:"email"`
	Phone Field `json:"phone"`
}

// Validate returns the human-readable problems with p; an empty slice means
// the payload is valid.
func Validate(p Payload) []string {
	errs := []string{}
	if msg := CheckName(p.Name.Value); msg != "" {
		errs = append(errs, msg)
	}
	if msg := CheckEmail(p.Email.Value); msg != "" {
		errs = append(errs, msg)
	}
	if msg := CheckPhone(p.Phone.Value); msg != "" {
		errs = append(errs, msg)
	}
	return errs
}

// CheckName returns MsgNameRequired unless v is a non-blank string.
func CheckName(v any) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return MsgNameRequired
	}
	return ""
}

// CheckEmail returns MsgEmailRequired for a missing, non-string or blank
// value and MsgEmailInvalid when the untrimmed value is not local@domain.tld.
func CheckEmail(v any) string {
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return MsgEmailRequired
	}
	if !IsEmail(s) {
		return MsgEmailInvalid
	}
	return ""
}

// CheckPhone returns MsgPhoneRequired for a missing or blank value and
// MsgPhoneDigits when the digit count falls outside the allowed range.
// Numbers are accepted and judged by their decimal text.
func CheckPhone(v any) string {
	if v == nil {
		return MsgPhoneRequired
	}
	s, ok := Text(v)
	if ok && strings.TrimSpace(s) == "" {
		return MsgPhoneRequired
	}
	if !ok || !IsPhone(s) {
		return MsgPhoneDigits
	}
	return ""
}

// IsEmail reports whether s matches the accepted email shape.
func IsEmail(s string) bool { return emailRE.MatchString(s) }

// IsPhone reports whether the digit-only projection of s has an allowed length.
func IsPhone(s string) bool {
	n := len(Digits(s))
	return n >= MinPhoneDigits && n <= MaxPhoneDigits
}

// Digits strips every non-digit character from s.
func Digits(s string) string { return nonDigits.ReplaceAllString(s, "") }

// Text returns the textual form of a string or numeric value. The second
// result is false for any other type.
func Text(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case json.Number:
		return x.String(), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	default:
		return "", false
	}
}
