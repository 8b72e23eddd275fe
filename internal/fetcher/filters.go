package fetcher

import "strings"

// Album-type predicates over (primary_type, secondary_types). A configured
// type name selects one predicate; an album passes the filter when any
// selected predicate matches. "Studio" is the only compound one: a plain
// album with no secondary flavor.
var albumTypePredicates = map[string]func(primary string, secondary []string) bool{
	"Studio":          func(p string, s []string) bool { return p == "Album" && len(s) == 0 },
	"EP":              primaryIs("EP"),
	"Single":          primaryIs("Single"),
	"Broadcast":       primaryIs("Broadcast"),
	"Other":           primaryIs("Other"),
	"Live":            secondaryHas("Live"),
	"Compilation":     secondaryHas("Compilation"),
	"Soundtrack":      secondaryHas("Soundtrack"),
	"Remix":           secondaryHas("Remix"),
	"DJ-mix":          secondaryHas("DJ-mix"),
	"Mixtape":         secondaryHas("Mixtape/Street", "Mixtape"),
	"Demo":            secondaryHas("Demo"),
	"Spokenword":      secondaryHas("Spokenword"),
	"Interview":       secondaryHas("Interview"),
	"Audiobook":       secondaryHas("Audiobook"),
	"Audio drama":     secondaryHas("Audio drama"),
	"Field recording": secondaryHas("Field recording"),
}

func primaryIs(want string) func(string, []string) bool {
	return func(p string, _ []string) bool { return p == want }
}

func secondaryHas(want ...string) func(string, []string) bool {
	return func(_ string, secondary []string) bool {
		for _, s := range secondary {
			for _, w := range want {
				if strings.EqualFold(s, w) {
					return true
				}
			}
		}
		return false
	}
}

// AlbumTypeWanted reports whether an album survives the configured type
// filter. An empty filter keeps everything.
func AlbumTypeWanted(primary *string, secondary []string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	p := ""
	if primary != nil {
		p = *primary
	}
	for _, name := range selected {
		pred, ok := albumTypePredicates[name]
		if !ok {
			continue
		}
		if pred(p, secondary) {
			return true
		}
	}
	return false
}

// ReleaseStatusWanted reports whether a release survives the configured
// status filter. A release with no status never matches a non-empty filter;
// the background fill picks it up later.
func ReleaseStatusWanted(status *string, selected []string) bool {
	if len(selected) == 0 {
		return true
	}
	if status == nil || *status == "" {
		return false
	}
	for _, s := range selected {
		if strings.EqualFold(s, *status) {
			return true
		}
	}
	return false
}
