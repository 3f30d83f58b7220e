package gc

import (
	"errors"
	"strings"
	"testing"
)

const (
	parNewAt20 = "20.189: [GC 20.190: [ParNew: 86199K->8454K(91712K), 0.0375060 secs] 89399K->11655K(907328K), 0.0387074 secs]"
	parNewAt25 = "25.016: [GC 25.017: [ParNew: 86199K->8454K(91712K), 0.0375060 secs] 89399K->11655K(907328K), 0.0387074 secs]"
)

func TestStoreClassifiesAndCounts(t *testing.T) {
	in := parNewAt20 + "\n" +
		"garbage line one\n" +
		parNewAt25 + "\n" +
		"garbage line two\n"

	run, err := NewManager().Store(strings.NewReader(in), false)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if len(run.Events) != 2 {
		t.Errorf("events = %d, want 2", len(run.Events))
	}
	if run.UnidentifiedCount() != 2 {
		t.Errorf("UnidentifiedCount = %d, want 2", run.UnidentifiedCount())
	}
	if got := run.UnidentifiedLines(); len(got) != 2 || got[0] != "garbage line one" {
		t.Errorf("UnidentifiedLines = %v", got)
	}
}

func TestStoreRejectLimit(t *testing.T) {
	var b strings.Builder
	for range 10 {
		b.WriteString("not a gc line\n")
	}

	m := NewManager()
	m.SetRejectLimit(3)
	run, err := m.Store(strings.NewReader(b.String()), false)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	// Retention is capped; the count keeps the true total.
	if len(run.UnidentifiedLines()) != 3 {
		t.Errorf("retained = %d, want 3", len(run.UnidentifiedLines()))
	}
	if run.UnidentifiedCount() != 10 {
		t.Errorf("UnidentifiedCount = %d, want 10", run.UnidentifiedCount())
	}
}

func TestStoreTimeWarp(t *testing.T) {
	// The second pause starts before the first one ends.
	in := parNewAt25 + "\n" + parNewAt20 + "\n"

	run, err := NewManager().Store(strings.NewReader(in), false)
	var warp *TimeWarpError
	if !errors.As(err, &warp) {
		t.Fatalf("err = %v, want *TimeWarpError", err)
	}
	if warp.Curr.Timestamp != 20189 {
		t.Errorf("Curr.Timestamp = %d, want 20189", warp.Curr.Timestamp)
	}
	// The run is still populated for callers that want to report anyway.
	if len(run.Events) != 2 {
		t.Errorf("events = %d, want 2", len(run.Events))
	}
}

func TestStoreReorder(t *testing.T) {
	in := parNewAt25 + "\n" + parNewAt20 + "\n"

	run, err := NewManager().Store(strings.NewReader(in), true)
	if err != nil {
		t.Fatalf("Store with reorder: %v", err)
	}
	if run.Events[0].Timestamp != 20189 || run.Events[1].Timestamp != 25016 {
		t.Errorf("events not sorted: %d, %d",
			run.Events[0].Timestamp, run.Events[1].Timestamp)
	}
}

func TestStoreReorderIdempotent(t *testing.T) {
	// Reordering an already chronological log changes nothing.
	in := parNewAt20 + "\n" + parNewAt25 + "\n"

	sorted, err := NewManager().Store(strings.NewReader(in), true)
	if err != nil {
		t.Fatalf("Store with reorder: %v", err)
	}
	plain, err := NewManager().Store(strings.NewReader(in), false)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if len(sorted.Events) != len(plain.Events) {
		t.Fatalf("event counts differ: %d vs %d", len(sorted.Events), len(plain.Events))
	}
	for i := range sorted.Events {
		if sorted.Events[i].LogEntry != plain.Events[i].LogEntry {
			t.Errorf("event %d differs after reorder", i)
		}
	}
}

func TestStoreConcurrentOverlapAllowed(t *testing.T) {
	// A concurrent phase overlapping a pause is not a chronology fault.
	in := "251.763: [GC [1 CMS-initial-mark: 4133273K(8218240K)] 4150346K(8367360K), 0.0174433 secs]\n" +
		"251.781: [CMS-concurrent-mark: 2.812/2.907 secs]\n" +
		"252.000: [GC 252.000: [ParNew: 86199K->8454K(91712K), 0.0375060 secs] 89399K->11655K(907328K), 0.0387074 secs]\n"

	if _, err := NewManager().Store(strings.NewReader(in), false); err != nil {
		t.Fatalf("Store: %v", err)
	}
}

func TestRunFirstAndLastEvent(t *testing.T) {
	in := parNewAt20 + "\n" + parNewAt25 + "\n"

	run, err := NewManager().Store(strings.NewReader(in), false)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if run.FirstEvent().Timestamp != 20189 {
		t.Errorf("FirstEvent.Timestamp = %d, want 20189", run.FirstEvent().Timestamp)
	}
	if run.LastEvent().Timestamp != 25016 {
		t.Errorf("LastEvent.Timestamp = %d, want 25016", run.LastEvent().Timestamp)
	}
}

func TestLastEventWithTrailingConcurrentPhase(t *testing.T) {
	// A concurrent phase that finishes last ends at its line's timestamp;
	// the run must not appear to extend past the end of the log.
	in := "250.000: [GC 250.000: [ParNew: 86199K->8454K(91712K), 0.0375060 secs] 89399K->11655K(907328K), 0.0387074 secs]\n" +
		"254.688: [CMS-concurrent-mark: 2.812/2.907 secs]\n"

	run, err := NewManager().Store(strings.NewReader(in), false)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	last := run.LastEvent()
	if last.Kind != CmsConcurrent {
		t.Fatalf("LastEvent.Kind = %v, want %v", last.Kind, CmsConcurrent)
	}
	if last.EndTimestamp() != 254688 {
		t.Errorf("LastEvent.EndTimestamp = %d, want 254688", last.EndTimestamp())
	}
	if s := run.Statistics(); s.LastEvent.EndTimestamp() != 254688 {
		t.Errorf("stats last timestamp = %d, want 254688", s.LastEvent.EndTimestamp())
	}
}

func TestEmptyRun(t *testing.T) {
	run, err := NewManager().Store(strings.NewReader(""), false)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if run.FirstEvent() != nil || run.LastEvent() != nil {
		t.Error("expected nil first/last event")
	}
	s := run.Statistics()
	if s.GCThroughput != 100 || s.ThroughputRounded {
		t.Errorf("GCThroughput = %d (rounded=%v), want 100", s.GCThroughput, s.ThroughputRounded)
	}
}
