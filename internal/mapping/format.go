package mapping

import (
	"fmt"
	"strconv"
	"strings"
)

// Mapping rules carry format templates in the legacy rule rows' notation:
// a single placeholder such as "{}", "{:.1f}", "{:d}" or "{:.0%}", optionally
// surrounded by literal text ("{:.1f} points"). This file interprets that
// closed mini-language; anything else is a formatting error the resolver
// downgrades to the rule's default.

// formatNumber renders a numeric value through a rule's format template.
func formatNumber(template string, value float64) (string, error) {
	prefix, spec, suffix, err := splitTemplate(template)
	if err != nil {
		return "", err
	}

	var body string
	switch {
	case spec == "":
		body = strconv.FormatFloat(value, 'f', -1, 64)
	case spec == ":d":
		body = strconv.FormatInt(int64(value), 10)
	case strings.HasPrefix(spec, ":.") && strings.HasSuffix(spec, "f"):
		prec, err := strconv.Atoi(spec[2 : len(spec)-1])
		if err != nil {
			return "", fmt.Errorf("bad precision in format %q", template)
		}
		body = strconv.FormatFloat(value, 'f', prec, 64)
	case strings.HasPrefix(spec, ":.") && strings.HasSuffix(spec, "%"):
		prec, err := strconv.Atoi(spec[2 : len(spec)-1])
		if err != nil {
			return "", fmt.Errorf("bad precision in format %q", template)
		}
		body = strconv.FormatFloat(value*100, 'f', prec, 64) + "%"
	default:
		return "", fmt.Errorf("unsupported number format %q", template)
	}

	return prefix + body + suffix, nil
}

// formatString substitutes a string value into a rule's format template.
func formatString(template string, value string) (string, error) {
	prefix, spec, suffix, err := splitTemplate(template)
	if err != nil {
		return "", err
	}
	if spec != "" {
		return "", fmt.Errorf("unsupported string format %q", template)
	}
	return prefix + value + suffix, nil
}

// splitTemplate breaks "pre{spec}post" into its three parts. Exactly one
// placeholder is required.
func splitTemplate(template string) (prefix, spec, suffix string, err error) {
	open := strings.Index(template, "{")
	if open < 0 {
		return "", "", "", fmt.Errorf("format %q has no placeholder", template)
	}
	close := strings.Index(template[open:], "}")
	if close < 0 {
		return "", "", "", fmt.Errorf("format %q has an unterminated placeholder", template)
	}
	close += open

	suffix = template[close+1:]
	if strings.Contains(suffix, "{") {
		return "", "", "", fmt.Errorf("format %q has multiple placeholders", template)
	}
	return template[:open], template[open+1 : close], suffix, nil
}
