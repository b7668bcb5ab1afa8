package commandmeta

import (
	"strings"
)

type OutputPolicy uint8

const (
	OutputPolicyStructured OutputPolicy = iota
	OutputPolicyTextOnly
)

// OutputPolicyForPath reports whether a command can honor --output json
// and yaml or only ever writes plain text.
func OutputPolicyForPath(path string) OutputPolicy {
	normalized := strings.TrimSpace(path)
	switch {
	case normalized == "harborsync config print-template",
		normalized == "harborsync completion",
		strings.HasPrefix(normalized, "harborsync completion "),
		strings.HasPrefix(normalized, "harborsync help"):
		return OutputPolicyTextOnly
	default:
		return OutputPolicyStructured
	}
}

// ContactsHarbor reports whether the command opens a Harbor session.
func ContactsHarbor(path string) bool {
	switch strings.TrimSpace(path) {
	case "harborsync apply", "harborsync project", "harborsync registry", "harborsync config check":
		return true
	default:
		return false
	}
}
