// Package effect parses reward effect commands such as "add_points:50" or
// "give_item:minecraft:diamond:1" into typed descriptors.
package effect

import "strings"

// Kind identifies what an effect does.
type Kind string

const (
	KindUnlockExit  Kind = "unlock_exit"
	KindAddPoints   Kind = "add_points"
	KindAddCurrency Kind = "add_currency"
	KindGiveItem    Kind = "give_item"
	KindGiveEffect  Kind = "give_effect"
	KindMessage     Kind = "message"
	KindCustom      Kind = "custom"
)

var knownKinds = map[string]Kind{
	string(KindUnlockExit):  KindUnlockExit,
	string(KindAddPoints):   KindAddPoints,
	string(KindAddCurrency): KindAddCurrency,
	string(KindGiveItem):    KindGiveItem,
	string(KindGiveEffect):  KindGiveEffect,
	string(KindMessage):     KindMessage,
	string(KindCustom):      KindCustom,
}

// Deferred reports whether the engine leaves execution to an external system.
func (k Kind) Deferred() bool {
	switch k {
	case KindAddCurrency, KindGiveItem, KindGiveEffect, KindCustom:
		return true
	}
	return false
}

// Descriptor is a parsed effect command.
type Descriptor struct {
	Kind Kind     `json:"kind"`
	Args []string `json:"args"`
	Raw  string   `json:"raw"` // trimmed input; empty for blank input
}

// Arg returns the i-th argument or "" when absent.
func (d Descriptor) Arg(i int) string {
	if i < 0 || i >= len(d.Args) {
		return ""
	}
	return d.Args[i]
}

// Parse turns a raw command into a Descriptor. It never fails: blank input
// and unknown keywords become KindCustom.
//
// The command is split on every ':'; the lowercased first segment selects the
// kind and the remaining trimmed segments are positional arguments, which may
// be empty.
func Parse(raw string) Descriptor {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Descriptor{Kind: KindCustom, Args: []string{}}
	}

	parts := strings.Split(trimmed, ":")
	kind, ok := knownKinds[strings.ToLower(strings.TrimSpace(parts[0]))]
	if !ok {
		kind = KindCustom
	}

	args := make([]string, 0, len(parts)-1)
	for _, p := range parts[1:] {
		args = append(args, strings.TrimSpace(p))
	}
	return Descriptor{Kind: kind, Args: args, Raw: trimmed}
}

// ParseAll parses every non-blank command in order.
func ParseAll(raws []string) []Descriptor {
	out := make([]Descriptor, 0, len(raws))
	for _, r := range raws {
		if strings.TrimSpace(r) == "" {
			continue
		}
		out = append(out, Parse(r))
	}
	return out
}
