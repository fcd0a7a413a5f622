// Package mapping translates the upstream system's loosely-typed task records
// into the canonical QuoteRequest model and back. Upstream deployments vary in
// which field names are populated and in what shape each value arrives (bare
// string, {id,name,type} object, array of objects), so every value crosses one
// of the coercion functions below before it touches the model.
package mapping

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// objectTextKeys are probed in order when a logical string arrives as an
// object. Name wins over text wins over value.
var objectTextKeys = []string{"name", "text", "value"}

// String coerces any JSON value shape to a trimmed string. Objects resolve
// through name/text/value before falling back to their JSON form; an empty
// object is the empty string. Arrays join their coerced elements with ", ".
func String(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		for _, key := range objectTextKeys {
			if pv, ok := t[key]; ok {
				if s := String(pv); s != "" {
					return s
				}
			}
		}
		if len(t) == 0 {
			return ""
		}
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return string(b)
	case []any:
		var parts []string
		for _, elem := range t {
			if s := String(elem); s != "" {
				parts = append(parts, s)
			}
		}
		return strings.Join(parts, ", ")
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.Trim(strings.TrimSpace(string(b)), `"`)
	}
}

var currencyStripper = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", ",", "", " ", "", " ", "",
)

// Number coerces a currency-formatted value to a non-negative decimal. Empty
// or non-numeric input yields nil (value absent), never zero.
func Number(v any) *float64 {
	switch t := v.(type) {
	case nil:
		return nil
	case float64:
		if t < 0 {
			return nil
		}
		f := t
		return &f
	case json.Number:
		return Number(t.String())
	}

	s := currencyStripper.Replace(String(v))
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return nil
	}
	return &f
}

var bareDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// genericDateFormats are tried after the ISO fast paths, most specific first.
var genericDateFormats = []string{
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"01/02/2006",
	"1/2/2006",
}

// Date coerces a value to a timestamp. ISO-8601 input passes through, a bare
// YYYY-MM-DD becomes midnight UTC on that date, and anything else runs the
// generic format list. Total failure substitutes now: one bad date must not
// fail the whole record, at the cost of a fabricated-looking timestamp that
// callers must not treat as historical truth.
func Date(v any, now time.Time) time.Time {
	s := String(v)
	if s == "" {
		return now
	}

	if strings.ContainsAny(s, "TZ") {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			return t
		}
		if t, err := time.Parse("2006-01-02T15:04:05", s); err == nil {
			return t.UTC()
		}
	}

	if bareDateRe.MatchString(s) {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t // midnight UTC
		}
	}

	for _, format := range genericDateFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t.UTC()
		}
	}

	return now
}

// HTMLToText flattens rich-text HTML to plain text, collapsing whitespace.
// Plain input comes back cleaned but otherwise untouched.
func HTMLToText(html string) string {
	if !strings.ContainsRune(html, '<') {
		return cleanText(html)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return cleanText(html)
	}
	return cleanText(doc.Text())
}

// cleanText collapses runs of whitespace into single spaces and trims.
func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
