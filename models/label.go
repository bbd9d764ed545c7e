package models

import (
	"regexp"
	"unicode/utf8"
)

var (
	suffixKeyPattern = regexp.MustCompile(`^[0-9a-z]$`)
	colorPattern     = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)
)

// Clean checks the label on its own, without looking at other labels in
// the project. A prefix key is only meaningful together with a suffix key.
func (l *Label) Clean() error {
	verr := &ValidationError{}

	if l.Text == "" {
		verr.Add("text", "This field may not be blank.")
	}
	if utf8.RuneCountInString(l.Text) > 100 {
		verr.Add("text", "Ensure this field has no more than 100 characters.")
	}

	prefix, suffix := deref(l.PrefixKey), deref(l.SuffixKey)
	if prefix != "" && suffix == "" {
		verr.Add(NonFieldErrors, "Shortcut key may not have a prefix key without a suffix key.")
	}
	switch prefix {
	case "", PrefixCtrl, PrefixShift, PrefixCtrlShift:
	default:
		verr.Add("prefix_key", "\""+prefix+"\" is not a valid choice.")
	}
	if suffix != "" && !suffixKeyPattern.MatchString(suffix) {
		verr.Add("suffix_key", "\""+suffix+"\" is not a valid choice.")
	}

	if !colorPattern.MatchString(l.BackgroundColor) {
		verr.Add("background_color", "Enter a color in #rrggbb form.")
	}
	if !colorPattern.MatchString(l.TextColor) {
		verr.Add("text_color", "Enter a color in #rrggbb form.")
	}

	return verr.OrNil()
}

// HasShortcut reports whether either shortcut key is set.
func (l *Label) HasShortcut() bool {
	return deref(l.PrefixKey) != "" || deref(l.SuffixKey) != ""
}

// Normalize turns empty key strings into nil and fills default colors.
func (l *Label) Normalize() {
	if l.PrefixKey != nil && *l.PrefixKey == "" {
		l.PrefixKey = nil
	}
	if l.SuffixKey != nil && *l.SuffixKey == "" {
		l.SuffixKey = nil
	}
	if l.BackgroundColor == "" {
		l.BackgroundColor = DefaultBackgroundColor
	}
	if l.TextColor == "" {
		l.TextColor = DefaultTextColor
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
