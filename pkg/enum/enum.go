// Package enum canonicalises enumeration values received from clients.
package enum

import "strings"

var separators = strings.NewReplacer("_", "-", " ", "-")

// Normalize lower-cases v and joins words with hyphens, so "In Progress",
// "in_progress" and "in-progress" all read as "in-progress".
func Normalize(v string) string {
	return separators.Replace(strings.ToLower(strings.TrimSpace(v)))
}
