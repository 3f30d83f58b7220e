package gc

import "math"

// DefaultThroughputThreshold is the percentage below which time spent
// running the application (vs collecting) flags a bottleneck.
const DefaultThroughputThreshold = 90

// Statistics is the single-pass aggregation of a run's events. All sizes
// are kilobytes, timestamps and pauses milliseconds.
type Statistics struct {
	BlockingEventCount int

	// EventKinds lists the distinct kinds in first-seen order; KindCounts
	// has the per-kind totals.
	EventKinds []EventKind
	KindCounts map[EventKind]int

	// Heap and perm/metaspace extremes, split by whether the collector was
	// paused when the numbers were reported. Concurrent collectors report
	// sizes mid-flight, so the two can legitimately disagree.
	MaxHeapOccupancy            int64
	MaxHeapSpace                int64
	MaxHeapOccupancyNonBlocking int64
	MaxHeapSpaceNonBlocking     int64
	MaxPermOccupancy            int64
	MaxPermSpace                int64
	MaxPermOccupancyNonBlocking int64
	MaxPermSpaceNonBlocking     int64
	MaxYoungSpace               int64
	MaxOldSpace                 int64

	// NewRatio is the observed old-to-young space ratio, rounded, matching
	// the meaning of -XX:NewRatio. Zero when either space is unknown.
	NewRatio int

	// Metaspace records whether perm numbers came from Metaspace logging.
	Metaspace bool

	// GCThroughput is the percentage of wall time not spent in blocking
	// collections, rounded to the nearest whole percent and clamped to
	// [0, 100]. ThroughputRounded marks a 100 that hides real pause time.
	GCThroughput      int
	ThroughputRounded bool
	MaxGCPause        int64
	TotalGCPause      int64

	// Safepoint accounting from application-stopped-time events.
	StoppedTimeEventCount    int
	MaxStoppedTime           int64
	TotalStoppedTime         int64
	StoppedTimeThroughput    int
	StoppedThroughputRounded bool

	// GCStoppedRatio is GC pause time as a percentage of all stopped time.
	// Well below 100 means something other than GC is stopping the JVM.
	GCStoppedRatio int

	ParallelCount                 int
	InvertedParallelismCount      int
	WorstInvertedParallelismEvent *LogEvent
	SysGtUserCount                int

	// Bottlenecks holds the log lines of consecutive blocking events whose
	// interval throughput fell below the run's threshold.
	Bottlenecks []string

	FirstEvent *LogEvent
	LastEvent  *LogEvent
}

// summarize walks the run's events once and fills every statistic.
func summarize(r *Run) *Statistics {
	s := &Statistics{KindCounts: make(map[EventKind]int)}

	var priorBlocking *LogEvent
	var lastBottleneck string
	for _, ev := range r.Events {
		if s.KindCounts[ev.Kind] == 0 {
			s.EventKinds = append(s.EventKinds, ev.Kind)
		}
		s.KindCounts[ev.Kind]++

		if s.FirstEvent == nil {
			s.FirstEvent = ev
		}
		if s.LastEvent == nil || ev.EndTimestamp() > s.LastEvent.EndTimestamp() {
			s.LastEvent = ev
		}

		if ev.StoppedTime() {
			s.StoppedTimeEventCount++
			d := ev.DurationMillis()
			s.TotalStoppedTime += d
			if d > s.MaxStoppedTime {
				s.MaxStoppedTime = d
			}
			continue
		}

		s.recordSizes(ev)

		if !ev.Blocking() {
			continue
		}
		s.BlockingEventCount++
		d := ev.DurationMillis()
		s.TotalGCPause += d
		if d > s.MaxGCPause {
			s.MaxGCPause = d
		}

		if ev.HasTimes && ev.Parallel() {
			s.ParallelCount++
			p := ev.Parallelism()
			if p < 100 {
				s.InvertedParallelismCount++
				if s.WorstInvertedParallelismEvent == nil ||
					p < s.WorstInvertedParallelismEvent.Parallelism() {
					s.WorstInvertedParallelismEvent = ev
				}
			}
		}
		if ev.HasTimes && ev.TimeSys > ev.TimeUser {
			s.SysGtUserCount++
		}

		if priorBlocking != nil && isBottleneck(priorBlocking, ev, r.ThroughputThreshold) {
			if lastBottleneck != priorBlocking.LogEntry {
				s.Bottlenecks = append(s.Bottlenecks, priorBlocking.LogEntry)
			}
			s.Bottlenecks = append(s.Bottlenecks, ev.LogEntry)
			lastBottleneck = ev.LogEntry
		}
		priorBlocking = ev
	}

	if s.MaxYoungSpace > 0 && s.MaxOldSpace > 0 {
		s.NewRatio = int(math.Round(float64(s.MaxOldSpace) / float64(s.MaxYoungSpace)))
	}
	s.computeThroughput()
	return s
}

func (s *Statistics) recordSizes(ev *LogEvent) {
	occ, space := ev.HeapBegin(), ev.HeapSpace()
	if ev.Blocking() {
		if occ > s.MaxHeapOccupancy {
			s.MaxHeapOccupancy = occ
		}
		if space > s.MaxHeapSpace {
			s.MaxHeapSpace = space
		}
		if ev.PermBegin > s.MaxPermOccupancy {
			s.MaxPermOccupancy = ev.PermBegin
		}
		if ev.PermSpace > s.MaxPermSpace {
			s.MaxPermSpace = ev.PermSpace
		}
	} else {
		if occ > s.MaxHeapOccupancyNonBlocking {
			s.MaxHeapOccupancyNonBlocking = occ
		}
		if space > s.MaxHeapSpaceNonBlocking {
			s.MaxHeapSpaceNonBlocking = space
		}
		if ev.PermBegin > s.MaxPermOccupancyNonBlocking {
			s.MaxPermOccupancyNonBlocking = ev.PermBegin
		}
		if ev.PermSpace > s.MaxPermSpaceNonBlocking {
			s.MaxPermSpaceNonBlocking = ev.PermSpace
		}
	}
	if ev.PermSpace > 0 && ev.Metaspace {
		s.Metaspace = true
	}
	if ev.YoungSpace > s.MaxYoungSpace {
		s.MaxYoungSpace = ev.YoungSpace
	}
	if ev.OldSpace > s.MaxOldSpace {
		s.MaxOldSpace = ev.OldSpace
	}
}

// computeThroughput derives the percentage statistics once the totals are
// known. A run with no blocking events reports 100 with no rounding marker.
func (s *Statistics) computeThroughput() {
	s.GCThroughput = 100
	s.StoppedTimeThroughput = 100
	if s.FirstEvent == nil {
		return
	}
	// Timestamps are uptime, so the run interval starts at JVM start.
	total := s.LastEvent.EndTimestamp()
	if total <= 0 {
		return
	}
	if s.BlockingEventCount > 0 {
		s.GCThroughput, s.ThroughputRounded = throughputPercent(s.TotalGCPause, total)
	}
	if s.StoppedTimeEventCount > 0 {
		s.StoppedTimeThroughput, s.StoppedThroughputRounded =
			throughputPercent(s.TotalStoppedTime, total)
	}
	if s.TotalStoppedTime > 0 {
		s.GCStoppedRatio = clampPercent(math.Round(
			float64(s.TotalGCPause) * 100 / float64(s.TotalStoppedTime)))
	} else {
		s.GCStoppedRatio = 100
	}
}

// throughputPercent returns the rounded percentage of total time not spent
// stopped, and whether rounding hid a nonzero stopped total at 100.
func throughputPercent(stopped, total int64) (int, bool) {
	exact := float64(total-stopped) * 100 / float64(total)
	pct := clampPercent(math.Round(exact))
	return pct, pct == 100 && stopped > 0
}

func clampPercent(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return int(v)
}

// isBottleneck reports whether the interval between two consecutive
// blocking events spent more than the allowed share of wall time paused.
// The interval is measured end to end so back-to-back pauses register.
func isBottleneck(prior, curr *LogEvent, threshold int) bool {
	interval := curr.EndTimestamp() - prior.EndTimestamp()
	if interval <= 0 {
		return true
	}
	running := float64(interval-curr.DurationMillis()) * 100 / float64(interval)
	return running < float64(threshold)
}
