package model

import "strings"

// HTSCode is a dotted, hierarchical tariff number such as "6104.32.10".
type HTSCode string

// digits returns the code with the dots removed.
func (c HTSCode) digits() string {
	return strings.ReplaceAll(strings.TrimSpace(string(c)), ".", "")
}

// Chapter returns the two-digit chapter, or "" if the code is too short.
func (c HTSCode) Chapter() string {
	d := c.digits()
	if len(d) < 2 {
		return ""
	}
	return d[:2]
}

// Heading returns the four-digit heading, or "" if the code is too short.
func (c HTSCode) Heading() string {
	d := c.digits()
	if len(d) < 4 {
		return ""
	}
	return d[:4]
}

// IsParentOf reports whether other sits below c in the hierarchy.
// "6104.32" is a parent of "6104.32.10" but not of "6104.320" or itself.
func (c HTSCode) IsParentOf(other HTSCode) bool {
	parent := strings.TrimSpace(string(c))
	child := strings.TrimSpace(string(other))
	if parent == "" || len(child) <= len(parent) {
		return false
	}
	return strings.HasPrefix(child, parent+".")
}
