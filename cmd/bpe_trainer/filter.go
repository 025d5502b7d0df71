package main

import (
	"bytes"
	"errors"
	"fmt"
	"regexp"
	"unicode"
)

// Input filters applied before training. They are a policy of this tool,
// not of the trainer, which treats every byte the same way.
const (
	FILTER_NONE     = "none"
	FILTER_ALPHA    = "alpha"
	FILTER_SANITIZE = "sanitize"
)

var extraWhiteSpace = regexp.MustCompile("[[:space:]]+")

// ApplyFilter runs the named filter over data.
func ApplyFilter(name string, data []byte) ([]byte, error) {
	switch name {
	case "", FILTER_NONE:
		return data, nil
	case FILTER_ALPHA:
		return FilterAlphaSpace(data), nil
	case FILTER_SANITIZE:
		return []byte(SanitizeText(string(data))), nil
	default:
		return nil, errors.New(fmt.Sprintf("Invalid filter: %s", name))
	}
}

// FilterAlphaSpace keeps only ASCII letters and whitespace.
func FilterAlphaSpace(data []byte) []byte {
	filtered := make([]byte, 0, len(data))
	for _, c := range data {
		if ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') ||
			c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' ||
			c == '\r' {
			filtered = append(filtered, c)
		}
	}
	return filtered
}

// SanitizeText
// Normalizes whitespace: drops `\r`, collapses repeated newlines, turns
// escaped `\n` into a newline, removes the space before a colon, and
// collapses and trims whitespace within each line.
func SanitizeText(text string) string {
	runes := make([]rune, 0, len(text))
	lastRune := rune(0)
	for _, r := range text {
		if r == '\r' {
			// Silently drop Windows `\r`
			continue
		} else if r == '\n' && lastRune == '\n' {
			// Drop additional newlines.
			continue
		} else if r == 'n' && lastRune == '\\' {
			runes[len(runes)-1] = '\n'
		} else if r == ':' && lastRune == ' ' {
			runes[len(runes)-1] = ':'
		} else if r == '\t' {
			runes = append(runes, ' ')
		} else {
			runes = append(runes, r)
		}
		lastRune = runes[len(runes)-1]
	}
	lines := bytes.Split([]byte(string(runes)), []byte("\n"))
	for lineIdx := range lines {
		line := extraWhiteSpace.ReplaceAll(lines[lineIdx], []byte(" "))
		lines[lineIdx] = bytes.TrimFunc(line, unicode.IsSpace)
	}
	return string(bytes.Join(lines, []byte("\n")))
}
