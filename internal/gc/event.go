package gc

import "math"

// Tag describes a capability of an event kind. The original collector
// taxonomy (stop-the-world vs concurrent, which generations a collector
// reports, whether it uses multiple worker threads) is carried as a bitset
// queried by the aggregator and the analysis rules.
type Tag uint16

const (
	// TagBlocking marks a stop-the-world pause. Blocking events cannot
	// overlap; the run store enforces this.
	TagBlocking Tag = 1 << iota
	// TagConcurrent marks a phase that runs alongside application threads.
	TagConcurrent
	TagParallel
	TagSerial
	TagYoungData
	TagOldData
	TagPermData
	// TagStoppedTime marks safepoint accounting lines. They wrap GC pauses,
	// so they are exempt from the blocking chronology check.
	TagStoppedTime
)

func (t Tag) Has(flag Tag) bool { return t&flag != 0 }

// EventKind identifies one log-line grammar.
type EventKind int

const (
	Unidentified EventKind = iota
	ParNew
	ParallelScavenge
	ParallelCompactingOld
	SerialNew
	SerialOld
	CmsInitialMark
	CmsRemark
	CmsConcurrent
	G1YoungPause
	G1FullGC
	UnifiedG1YoungPause
	ApplicationStoppedTime
	VerboseGcYoung
	VerboseGcOld
)

type kindInfo struct {
	name string
	tags Tag
	// reportable kinds count toward GC pause statistics; the rest are
	// informational (safepoint totals, concurrent phases).
	reportable bool
}

var kindTable = map[EventKind]kindInfo{
	Unidentified:           {"UNIDENTIFIED", 0, false},
	ParNew:                 {"PAR_NEW", TagBlocking | TagParallel | TagYoungData | TagOldData, true},
	ParallelScavenge:       {"PARALLEL_SCAVENGE", TagBlocking | TagParallel | TagYoungData | TagOldData, true},
	ParallelCompactingOld:  {"PARALLEL_COMPACTING_OLD", TagBlocking | TagParallel | TagYoungData | TagOldData | TagPermData, true},
	SerialNew:              {"SERIAL_NEW", TagBlocking | TagSerial | TagYoungData | TagOldData, true},
	SerialOld:              {"SERIAL_OLD", TagBlocking | TagSerial | TagYoungData | TagOldData | TagPermData, true},
	CmsInitialMark:         {"CMS_INITIAL_MARK", TagBlocking | TagOldData, true},
	CmsRemark:              {"CMS_REMARK", TagBlocking | TagParallel, true},
	CmsConcurrent:          {"CMS_CONCURRENT", TagConcurrent, false},
	G1YoungPause:           {"G1_YOUNG_PAUSE", TagBlocking | TagParallel | TagYoungData, true},
	G1FullGC:               {"G1_FULL_GC", TagBlocking | TagSerial, true},
	UnifiedG1YoungPause:    {"UNIFIED_G1_YOUNG_PAUSE", TagBlocking | TagParallel | TagYoungData, true},
	ApplicationStoppedTime: {"APPLICATION_STOPPED_TIME", TagStoppedTime, false},
	VerboseGcYoung:         {"VERBOSE_GC_YOUNG", TagBlocking | TagYoungData, true},
	VerboseGcOld:           {"VERBOSE_GC_OLD", TagBlocking | TagOldData, true},
}

func (k EventKind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.name
	}
	return "UNKNOWN"
}

func (k EventKind) Tags() Tag { return kindTable[k].tags }

func (k EventKind) Reportable() bool { return kindTable[k].reportable }

// Trigger is the stated cause that initiated a GC event.
type Trigger string

const (
	TriggerNone                Trigger = ""
	TriggerAllocationFailure   Trigger = "Allocation Failure"
	TriggerSystemGC            Trigger = "System.gc()"
	TriggerMetadataGCThreshold Trigger = "Metadata GC Threshold"
	TriggerErgonomics          Trigger = "Ergonomics"
	TriggerHeapDumpInitiated   Trigger = "Heap Dump Initiated GC"
	TriggerGCLockerInitiated   Trigger = "GCLocker Initiated GC"
	TriggerCMSInitialMark      Trigger = "CMS Initial Mark"
	TriggerCMSFinalRemark      Trigger = "CMS Final Remark"
	TriggerPromotionFailed     Trigger = "promotion failed"
	TriggerToSpaceExhausted    Trigger = "To-space Exhausted"
	TriggerLastDitch           Trigger = "Last ditch collection"
	TriggerG1EvacuationPause   Trigger = "G1 Evacuation Pause"
	TriggerG1HumongousAlloc    Trigger = "G1 Humongous Allocation"
)

// LogEvent is one classified GC log line. Events are created during
// ingestion and immutable afterwards.
//
// Units follow the canonical axes: timestamps are milliseconds since JVM
// start, durations are microseconds (rounded), sizes are kilobytes, and CPU
// times are centiseconds as printed by [Times: ...] blocks.
type LogEvent struct {
	LogEntry  string
	Kind      EventKind
	Timestamp int64
	Duration  int64

	YoungBegin int64
	YoungEnd   int64
	YoungSpace int64

	OldBegin int64
	OldEnd   int64
	OldSpace int64

	PermBegin int64
	PermEnd   int64
	PermSpace int64
	// Metaspace is true when the perm triple came from a Metaspace block
	// (JDK 8+) rather than a permanent generation block.
	Metaspace bool

	// Combined heap occupancy for grammars that only report whole-heap
	// totals (verbose logging, G1).
	CombinedBegin int64
	CombinedEnd   int64
	CombinedSpace int64

	Trigger Trigger

	HasTimes bool
	TimeUser int
	TimeSys  int
	TimeReal int
}

func (e *LogEvent) Blocking() bool    { return e.Kind.Tags().Has(TagBlocking) }
func (e *LogEvent) Concurrent() bool  { return e.Kind.Tags().Has(TagConcurrent) }
func (e *LogEvent) StoppedTime() bool { return e.Kind.Tags().Has(TagStoppedTime) }
func (e *LogEvent) Parallel() bool    { return e.Kind.Tags().Has(TagParallel) }

// DurationMillis truncates the microsecond duration to the millisecond
// timestamp axis.
func (e *LogEvent) DurationMillis() int64 { return e.Duration / 1000 }

// EndTimestamp is the pause end in milliseconds since JVM start.
func (e *LogEvent) EndTimestamp() int64 { return e.Timestamp + e.DurationMillis() }

// HeapBegin is whole-heap occupancy at the start of the event. A captured
// combined total is authoritative; generation detail only stands in for it
// when no combined figure was reported, since some grammars (CMS marks)
// report a single generation alongside the whole heap.
func (e *LogEvent) HeapBegin() int64 {
	if e.CombinedBegin > 0 {
		return e.CombinedBegin
	}
	return e.YoungBegin + e.OldBegin
}

// HeapSpace is whole-heap capacity, preferring the combined figure.
func (e *LogEvent) HeapSpace() int64 {
	if e.CombinedSpace > 0 {
		return e.CombinedSpace
	}
	return e.YoungSpace + e.OldSpace
}

// Parallelism is the CPU efficiency of the pause as an integer percentage:
// 100 * (user + sys) / real, rounded up. A value below 100 on a parallel
// collector means worker threads were not used effectively ("inverted
// parallelism"). A zero real time with nonzero CPU time reports maximal
// parallelism rather than dividing by zero.
func (e *LogEvent) Parallelism() int {
	if e.TimeReal == 0 {
		if e.TimeUser == 0 && e.TimeSys == 0 {
			return 100
		}
		return math.MaxInt32
	}
	cpu := e.TimeUser + e.TimeSys
	return int(math.Ceil(float64(cpu) * 100 / float64(e.TimeReal)))
}
