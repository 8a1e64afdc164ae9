package util

import "strings"

var nameReplacer = strings.NewReplacer("/", "_", "\x00", "_")

// SanitizeName turns a remote conversation title into a usable directory name.
// It returns "" when nothing printable is left.
func SanitizeName(name string) string {
	name = strings.TrimSpace(nameReplacer.Replace(name))
	if name == "." || name == ".." {
		return ""
	}
	return name
}
