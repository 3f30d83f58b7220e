package gc

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"strings"
)

// DefaultRejectLimit bounds how many unidentified lines a run retains.
// The count keeps incrementing past the limit; only retention is capped.
const DefaultRejectLimit = 1000

// TimeWarpError reports a blocking event that starts before the previous
// blocking event finished, which means the log's chronology cannot be
// trusted. The run built so far is still returned alongside the error.
type TimeWarpError struct {
	Prev *LogEvent
	Curr *LogEvent
}

func (e *TimeWarpError) Error() string {
	return fmt.Sprintf("time warp: event at %dms begins before the previous event at %dms ends (%s)",
		e.Curr.Timestamp, e.Prev.Timestamp, e.Curr.LogEntry)
}

// Manager ingests canonical log lines and builds a Run. It holds the
// grammar registry and the unidentified-line retention limit; a single
// Manager can store any number of logs.
type Manager struct {
	registry    *Registry
	rejectLimit int
}

func NewManager() *Manager {
	return &Manager{registry: NewRegistry(), rejectLimit: DefaultRejectLimit}
}

// SetRejectLimit overrides the unidentified-line retention cap.
func (m *Manager) SetRejectLimit(limit int) {
	if limit >= 0 {
		m.rejectLimit = limit
	}
}

// Store reads canonical one-event-per-line text and classifies every line.
// With reorder set, events are stably sorted by timestamp before the
// chronology check, which tolerates logs interleaved by buffered writers.
// A chronology violation returns the populated Run together with a
// *TimeWarpError so callers can still report on what was ingested.
func (m *Manager) Store(r io.Reader, reorder bool) (*Run, error) {
	run := &Run{ThroughputThreshold: DefaultThroughputThreshold}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}
		ev, ok := m.registry.Classify(line)
		if !ok {
			run.unidentifiedCount++
			if len(run.unidentified) < m.rejectLimit {
				run.unidentified = append(run.unidentified, line)
			}
			continue
		}
		run.Events = append(run.Events, ev)
	}
	if err := scanner.Err(); err != nil {
		return run, fmt.Errorf("reading log: %w", err)
	}

	if reorder {
		sort.SliceStable(run.Events, func(i, j int) bool {
			return run.Events[i].Timestamp < run.Events[j].Timestamp
		})
	}
	if err := checkChronology(run.Events); err != nil {
		return run, err
	}
	return run, nil
}

// checkChronology walks the blocking events in log order and returns the
// first overlap. Concurrent events are exempt; overlapping a pause is what
// concurrent collectors are for.
func checkChronology(events []*LogEvent) error {
	var prev *LogEvent
	for _, ev := range events {
		if !ev.Blocking() {
			continue
		}
		if prev != nil && ev.Timestamp < prev.EndTimestamp() {
			return &TimeWarpError{Prev: prev, Curr: ev}
		}
		prev = ev
	}
	return nil
}

// Run is the stored form of one GC log: the classified events in order,
// the bounded set of lines nothing recognized, and the JVM context the
// caller supplied. Statistics are computed once on first use.
type Run struct {
	Events              []*LogEvent
	Jvm                 *Jvm
	ThroughputThreshold int

	unidentified      []string
	unidentifiedCount int

	stats *Statistics
}

// UnidentifiedCount is the total number of lines that failed
// classification, including those past the retention cap.
func (r *Run) UnidentifiedCount() int { return r.unidentifiedCount }

// UnidentifiedLines returns the retained unidentified lines, at most the
// manager's reject limit.
func (r *Run) UnidentifiedLines() []string { return r.unidentified }

// Statistics aggregates the run's events. The result is computed on the
// first call and cached; Run is not for concurrent use.
func (r *Run) Statistics() *Statistics {
	if r.stats == nil {
		r.stats = summarize(r)
	}
	return r.stats
}

// FirstEvent returns the earliest stored event, or nil for an empty run.
func (r *Run) FirstEvent() *LogEvent {
	if len(r.Events) == 0 {
		return nil
	}
	return r.Events[0]
}

// LastEvent returns the event with the greatest end timestamp. Events are
// in log order, so a long pause near the end can outlast its successors.
func (r *Run) LastEvent() *LogEvent {
	var last *LogEvent
	for _, ev := range r.Events {
		if last == nil || ev.EndTimestamp() > last.EndTimestamp() {
			last = ev
		}
	}
	return last
}
