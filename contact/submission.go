package contact

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/idna"

	"github.com/nexgen-studio/growthkit/estimate"
)

// Submission is the raw form body. Company is a honeypot: real visitors
// never see the field, so any value marks the request as automated.
type Submission struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Service  *string `json:"service"`
	Project  *string `json:"project"`
	Company  *string `json:"company"`
	Timeline *string `json:"timeline"`
}

// IsBot reports whether the honeypot was filled in.
func (s Submission) IsBot() bool {
	return s.Company != nil && strings.TrimSpace(*s.Company) != ""
}

// Lead is a validated submission, ready to forward.
type Lead struct {
	Name     string            `json:"name"`
	Email    string            `json:"email"`
	Service  string            `json:"service"`
	Project  string            `json:"project"`
	Timeline estimate.Timeline `json:"-"`
}

// Details mirrors a flattened validation error: messages not tied to a field
// plus messages per field.
type Details struct {
	FormErrors  []string            `json:"formErrors"`
	FieldErrors map[string][]string `json:"fieldErrors"`
}

func (d *Details) add(field, msg string) {
	if d.FieldErrors == nil {
		d.FieldErrors = make(map[string][]string)
	}
	d.FieldErrors[field] = append(d.FieldErrors[field], msg)
}

// Empty reports whether no errors were recorded.
func (d Details) Empty() bool {
	return len(d.FormErrors) == 0 && len(d.FieldErrors) == 0
}

// Field limits, counted in characters after trimming.
const (
	nameMin, nameMax       = 2, 100
	emailMax               = 200
	serviceMin, serviceMax = 1, 100
	projectMin, projectMax = 10, 4000
)

const invalidEmail = "Please provide a valid email address."

// Validate trims every field and checks it against its limits. The email
// domain is converted to its ASCII form.
func Validate(s Submission) (Lead, Details) {
	var d Details
	lead := Lead{
		Name:    textField(&d, "name", s.Name, nameMin, nameMax),
		Email:   emailField(&d, s.Email),
		Service: textField(&d, "service", s.Service, serviceMin, serviceMax),
		Project: textField(&d, "project", s.Project, projectMin, projectMax),
	}
	if s.Timeline != nil {
		switch t := estimate.Timeline(strings.TrimSpace(*s.Timeline)); t {
		case "", estimate.Under30, estimate.Days30to90, estimate.Exploring:
			lead.Timeline = t
		default:
			d.add("timeline", "Invalid enum value. Expected 'under-30' | '30-90' | 'exploring'")
		}
	}
	return lead, d
}

func textField(d *Details, name string, v *string, lo, hi int) string {
	if v == nil {
		d.add(name, "Required")
		return ""
	}
	s := strings.TrimSpace(*v)
	n := utf8.RuneCountInString(s)
	if n < lo {
		d.add(name, fmt.Sprintf("String must contain at least %d character(s)", lo))
	}
	if n > hi {
		d.add(name, fmt.Sprintf("String must contain at most %d character(s)", hi))
	}
	return s
}

func emailField(d *Details, v *string) string {
	if v == nil {
		d.add("email", "Required")
		return ""
	}
	s := strings.TrimSpace(*v)
	normalized, ok := normalizeEmail(s)
	if !ok {
		d.add("email", invalidEmail)
		normalized = s
	}
	if utf8.RuneCountInString(s) > emailMax {
		d.add("email", fmt.Sprintf("String must contain at most %d character(s)", emailMax))
	}
	return normalized
}

// normalizeEmail applies the shape check and converts an internationalized
// domain to punycode.
func normalizeEmail(s string) (string, bool) {
	if !estimate.IsValidEmail(s) {
		return "", false
	}
	at := strings.LastIndexByte(s, '@')
	domain, err := idna.Lookup.ToASCII(s[at+1:])
	if err != nil {
		return "", false
	}
	return s[:at+1] + domain, true
}
