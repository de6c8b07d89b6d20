// Package sanitize implements the per-type coercion rules applied to every
// persisted entity property. All functions are idempotent: applying a rule
// to its own output returns the same value.
package sanitize

import (
	"encoding/json"
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Type names a semantic property type from the entity schemas.
type Type string

const (
	TypeText     Type = "text"
	TypeRichText Type = "richtext"
	TypeEmail    Type = "email"
	TypePhone    Type = "phone"
	TypeDate     Type = "date"
	TypeDates    Type = "dates"
	TypeTime     Type = "time"
	TypeInt      Type = "int"
	TypeIntVal   Type = "intval"
	TypeFloat    Type = "float"
	TypeBool     Type = "bool"
	TypeYesNo    Type = "yesno"
	TypeArray    Type = "array"
)

// DateSentinel is the all-zero "no date" placeholder. It is always a valid
// member of a date list.
const DateSentinel = "0000-00-00"

// ChairEmailToken is the placeholder that passes email validation unchanged.
const ChairEmailToken = "{chair_email}"

var (
	tagPattern     = regexp.MustCompile(`<[^>]*>`)
	controlPattern = regexp.MustCompile(`[\x00-\x08\x0b\x0c\x0e-\x1f]`)
	phonePattern   = regexp.MustCompile(`[^0-9+().\- ]`)

	allowedTags = map[string]bool{
		"a": true, "b": true, "strong": true, "i": true, "em": true,
		"u": true, "p": true, "br": true, "ul": true, "ol": true,
		"li": true, "blockquote": true, "h3": true, "h4": true,
	}
	richTagPattern = regexp.MustCompile(`<\s*(/?)\s*([a-zA-Z0-9]+)([^>]*)>`)
	hrefPattern    = regexp.MustCompile(`href\s*=\s*"(https?://[^"]*|/[^"]*)"`)
)

// Value applies the rule for the named type to a raw string. Used for
// extension fields, which travel as strings.
func Value(t Type, raw string) string {
	switch t {
	case TypeText:
		return Text(raw)
	case TypeRichText:
		return RichText(raw)
	case TypeEmail:
		return Email(raw)
	case TypePhone:
		return Phone(raw)
	case TypeDate:
		return Date(raw)
	case TypeDates:
		return Dates(raw)
	case TypeTime:
		return Time(raw)
	case TypeInt:
		return strconv.Itoa(Int(raw))
	case TypeIntVal:
		return strconv.Itoa(IntVal(raw))
	case TypeFloat:
		return strconv.FormatFloat(Float(raw), 'f', -1, 64)
	case TypeBool:
		if Bool(raw) {
			return "1"
		}
		return "0"
	case TypeYesNo:
		return string(YesNo(raw))
	case TypeArray:
		return Array(raw)
	default:
		return Text(raw)
	}
}

// Text strips slashes and everything but safe plain text.
func Text(raw string) string {
	s := stripSlashes(raw)
	s = tagPattern.ReplaceAllString(s, "")
	s = controlPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// RichText allows a restricted safe-HTML subset: formatting tags keep their
// name only, anchors keep an http(s) or relative href.
func RichText(raw string) string {
	s := stripSlashes(raw)
	s = controlPattern.ReplaceAllString(s, "")
	s = richTagPattern.ReplaceAllStringFunc(s, func(tag string) string {
		m := richTagPattern.FindStringSubmatch(tag)
		closing, name, attrs := m[1], strings.ToLower(m[2]), m[3]
		if !allowedTags[name] {
			return ""
		}
		if closing == "/" {
			return "</" + name + ">"
		}
		if name == "a" {
			if href := hrefPattern.FindString(attrs); href != "" {
				return `<a ` + href + `>`
			}
			return "<a>"
		}
		return "<" + name + ">"
	})
	return strings.TrimSpace(s)
}

// Email validates RFC email shape. The literal {chair_email} placeholder
// passes through unchanged; anything else invalid becomes empty.
func Email(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" || s == ChairEmailToken {
		return s
	}
	addr, err := mail.ParseAddress(s)
	if err != nil {
		return ""
	}
	return addr.Address
}

// Phone keeps digits and common phone punctuation.
func Phone(raw string) string {
	return strings.TrimSpace(phonePattern.ReplaceAllString(raw, ""))
}

var dateLayouts = []string{"2006-01-02", "2006-1-2", "01/02/2006", "1/2/2006"}

// Date normalizes to YYYY-MM-DD; blank or unparseable input becomes empty.
// The all-zero sentinel is preserved.
func Date(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if s == DateSentinel {
		return DateSentinel
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// ValidDate reports whether the value is a real calendar date or the sentinel.
func ValidDate(raw string) bool {
	s := strings.TrimSpace(raw)
	if s == DateSentinel {
		return true
	}
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// Dates splits a comma list, keeps only individually valid dates (sentinel
// included) and rejoins. An invalid member is dropped, not fatal.
func Dates(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	parts := strings.Split(raw, ",")
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if d := Date(p); d != "" {
			kept = append(kept, d)
		}
	}
	return strings.Join(kept, ",")
}

// Time preserves free text verbatim after trimming. The stored value may be
// a 12-hour string with AM/PM; it is never reformatted here.
func Time(raw string) string {
	return strings.TrimSpace(raw)
}

// Int coerces to an absolute-value integer.
func Int(raw string) int {
	n := IntVal(raw)
	if n < 0 {
		return -n
	}
	return n
}

// IntVal coerces to a signed integer, leading-number style: "12abc" is 12,
// garbage is 0.
func IntVal(raw string) int {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// Float coerces to a float, 0 on garbage.
func Float(raw string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0
	}
	return f
}

// Bool coerces common truthy spellings to a flag.
func Bool(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// YesNo canonicalizes: case-insensitive "yes" becomes YES, anything else NO.
func YesNo(raw string) string {
	if strings.EqualFold(strings.TrimSpace(raw), "yes") {
		return "YES"
	}
	return "NO"
}

// Array canonicalizes a JSON array for storage; non-JSON input is wrapped
// as a single-element array.
func Array(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return "[]"
	}
	var arr []interface{}
	if err := json.Unmarshal([]byte(s), &arr); err == nil {
		out, err := json.Marshal(arr)
		if err == nil {
			return string(out)
		}
	}
	out, err := json.Marshal([]string{s})
	if err != nil {
		return "[]"
	}
	return string(out)
}

// stripSlashes removes backslash escaping in front of quotes and backslashes.
func stripSlashes(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\'', '"', '\\':
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
