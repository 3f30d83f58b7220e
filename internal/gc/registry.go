package gc

import "regexp"

// grammar is one row of the pattern registry: an event kind, the regular
// expression recognizing its logging, and the extraction step producing the
// typed payload. New log formats are supported by appending rows to the
// table in grammars.go; classification control flow never changes.
type grammar struct {
	kind    EventKind
	re      *regexp.Regexp
	extract func(m match) (*LogEvent, error)
}

// match wraps a successful submatch so extractors can pull named groups
// without tracking positional indexes.
type match struct {
	re     *regexp.Regexp
	groups []string
}

func (m match) get(name string) string {
	idx := m.re.SubexpIndex(name)
	if idx < 0 || idx >= len(m.groups) {
		return ""
	}
	return m.groups[idx]
}

// millis resolves an uptime group to milliseconds; a missing group is 0.
func (m match) millis(name string) (int64, error) {
	s := m.get(name)
	if s == "" {
		return 0, nil
	}
	return toMillis(s)
}

// micros resolves a fractional-seconds duration group to microseconds.
func (m match) micros(name string) (int64, error) {
	s := m.get(name)
	if s == "" {
		return 0, nil
	}
	return toMicros(s)
}

// sizeK resolves a kilobyte count group; a missing group is 0.
func (m match) sizeK(name string) (int64, error) {
	s := m.get(name)
	if s == "" {
		return 0, nil
	}
	return parseSizeK(s)
}

// size resolves a value group with a companion unit group to kilobytes.
func (m match) size(value, unit string) (int64, error) {
	s := m.get(value)
	if s == "" {
		return 0, nil
	}
	return parseSize(s, m.get(unit))
}

// times fills the [Times: ...] payload when the grammar captured one.
func (m match) times(ev *LogEvent) error {
	user := m.get("user")
	if user == "" {
		return nil
	}
	var err error
	if ev.TimeUser, err = toCentis(user); err != nil {
		return err
	}
	if ev.TimeSys, err = toCentis(m.get("sys")); err != nil {
		return err
	}
	if ev.TimeReal, err = toCentis(m.get("real")); err != nil {
		return err
	}
	ev.HasTimes = true
	return nil
}

// Registry resolves a canonical log line to exactly one event kind.
// Classification is first-match-wins over the explicitly ordered grammar
// table, so more specific grammars must precede general ones. The registry
// is read-only after construction and safe for concurrent use.
type Registry struct {
	grammars []grammar
}

func NewRegistry() *Registry {
	return &Registry{grammars: grammarTable()}
}

// Classify resolves line to a typed event. The second return is false when
// no grammar matches, or when a grammar matches structurally but a numeric
// group fails to extract; either way the line is unidentified.
func (r *Registry) Classify(line string) (*LogEvent, bool) {
	for _, g := range r.grammars {
		groups := g.re.FindStringSubmatch(line)
		if groups == nil {
			continue
		}
		ev, err := g.extract(match{re: g.re, groups: groups})
		if err != nil {
			return nil, false
		}
		ev.Kind = g.kind
		ev.LogEntry = line
		return ev, true
	}
	return nil, false
}
