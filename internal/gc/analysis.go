package gc

import (
	"fmt"
	"sort"
)

// Level grades a finding. Errors describe conditions that corrupt service,
// warnings cost measurable performance, info is worth knowing.
type Level int

const (
	LevelError Level = iota
	LevelWarn
	LevelInfo
)

func (l Level) String() string {
	switch l {
	case LevelError:
		return "error"
	case LevelWarn:
		return "warn"
	default:
		return "info"
	}
}

// Finding is one diagnostic conclusion about a run. Key is stable across
// releases so findings can be suppressed or tracked; Message is for humans.
type Finding struct {
	Level   Level
	Key     string
	Message string
}

// rule inspects a run and either produces a finding or declines. Rules are
// pure functions of the run; ordering between rules carries no meaning.
type rule func(r *Run, s *Statistics) *Finding

var rules = []rule{
	ruleSerialCollector,
	ruleExplicitGC,
	rulePromotionFailed,
	ruleInvertedParallelism,
	ruleSysGtUser,
	ruleGCStoppedRatio,
	rulePermGen,
	ruleMetaspace,
	ruleHeapDumpMissing,
	ruleCmsOccupancyFraction,
	ruleNewRatioInverted,
	ruleUnaccountedDisabledOptions,
	ruleStoppedTimeMissing,
}

// Analyze runs the rule catalog against the run and returns the findings
// sorted by severity. Each key appears at most once.
func Analyze(r *Run) []Finding {
	s := r.Statistics()
	seen := make(map[string]bool)
	var findings []Finding
	for _, rl := range rules {
		f := rl(r, s)
		if f == nil || seen[f.Key] {
			continue
		}
		seen[f.Key] = true
		findings = append(findings, *f)
	}
	sort.SliceStable(findings, func(i, j int) bool {
		return findings[i].Level < findings[j].Level
	})
	return findings
}

func ruleSerialCollector(_ *Run, s *Statistics) *Finding {
	if s.KindCounts[SerialNew] == 0 && s.KindCounts[SerialOld] == 0 {
		return nil
	}
	return &Finding{LevelWarn, "warn.gc.serial",
		"The serial collector is being used. It is single threaded and " +
			"stops all application threads for the full collection; consider a " +
			"parallel or concurrent collector."}
}

func ruleExplicitGC(r *Run, _ *Statistics) *Finding {
	n := 0
	for _, ev := range r.Events {
		if ev.Trigger == TriggerSystemGC {
			n++
		}
	}
	if n == 0 {
		return nil
	}
	return &Finding{LevelWarn, "warn.explicit.gc", fmt.Sprintf(
		"Explicit garbage collection was invoked %d time(s) with System.gc() "+
			"or Runtime.gc(). These collections are unnecessary and can be "+
			"disabled with -XX:+DisableExplicitGC.", n)}
}

func rulePromotionFailed(r *Run, _ *Statistics) *Finding {
	for _, ev := range r.Events {
		if ev.Trigger == TriggerPromotionFailed {
			return &Finding{LevelError, "error.promotion.failed",
				"Promotion failed: objects surviving a young collection could " +
					"not be moved to the old generation. The old generation is too " +
					"small or too fragmented."}
		}
	}
	return nil
}

func ruleInvertedParallelism(_ *Run, s *Statistics) *Finding {
	if s.InvertedParallelismCount == 0 {
		return nil
	}
	return &Finding{LevelWarn, "warn.parallelism.inverted", fmt.Sprintf(
		"Inverted parallelism was observed in %d of %d parallel collection(s): "+
			"real time exceeded the per-thread share of cpu time, so the "+
			"parallel worker threads are not helping. Worst: %s",
		s.InvertedParallelismCount, s.ParallelCount,
		s.WorstInvertedParallelismEvent.LogEntry)}
}

func ruleSysGtUser(_ *Run, s *Statistics) *Finding {
	if s.SysGtUserCount == 0 {
		return nil
	}
	return &Finding{LevelWarn, "warn.sys.gt.user", fmt.Sprintf(
		"sys time exceeded user time in %d collection(s), which points at an "+
			"operating system issue such as memory pressure, disk latency on "+
			"the log device, or a clock problem.", s.SysGtUserCount)}
}

func ruleGCStoppedRatio(_ *Run, s *Statistics) *Finding {
	if s.TotalGCPause == 0 || s.TotalStoppedTime == 0 || s.GCStoppedRatio >= 80 {
		return nil
	}
	return &Finding{LevelWarn, "warn.gc.stopped.ratio", fmt.Sprintf(
		"Only %d%% of stopped time is garbage collection. Something besides "+
			"GC is stopping application threads at safepoints.", s.GCStoppedRatio)}
}

func rulePermGen(_ *Run, s *Statistics) *Finding {
	if s.MaxPermSpace == 0 || s.Metaspace {
		return nil
	}
	return &Finding{LevelInfo, "info.perm.gen",
		"Permanent generation sizing is reported. Consider setting " +
			"-XX:PermSize equal to -XX:MaxPermSize to avoid resize collections."}
}

func ruleMetaspace(_ *Run, s *Statistics) *Finding {
	if !s.Metaspace {
		return nil
	}
	return &Finding{LevelInfo, "info.metaspace",
		"Metaspace sizing is reported. Metaspace is limited only by " +
			"-XX:MaxMetaspaceSize (native memory) when set."}
}

func ruleHeapDumpMissing(r *Run, _ *Statistics) *Finding {
	if r.Jvm == nil || r.Jvm.Options == "" ||
		r.Jvm.HasOption("-XX:+HeapDumpOnOutOfMemoryError") {
		return nil
	}
	return &Finding{LevelWarn, "warn.heap.dump.on.oom.missing",
		"-XX:+HeapDumpOnOutOfMemoryError is not set. Without it an " +
			"OutOfMemoryError leaves nothing to diagnose."}
}

func ruleCmsOccupancyFraction(r *Run, s *Statistics) *Finding {
	cms := s.KindCounts[CmsInitialMark] + s.KindCounts[CmsRemark] +
		s.KindCounts[CmsConcurrent]
	if cms == 0 || !r.Jvm.HasOption("-XX:CMSInitiatingOccupancyFraction") ||
		r.Jvm.HasOption("-XX:+UseCMSInitiatingOccupancyOnly") {
		return nil
	}
	return &Finding{LevelWarn, "warn.cms.init.occupancy.only.missing",
		"-XX:CMSInitiatingOccupancyFraction is set without " +
			"-XX:+UseCMSInitiatingOccupancyOnly, so the occupancy fraction is " +
			"only a hint and the JVM still starts CMS cycles on its own schedule."}
}

func ruleNewRatioInverted(_ *Run, s *Statistics) *Finding {
	if s.MaxYoungSpace == 0 || s.MaxOldSpace == 0 || s.MaxYoungSpace < s.MaxOldSpace {
		return nil
	}
	return &Finding{LevelInfo, "info.new.ratio.inverted",
		"The young generation is as large as or larger than the old " +
			"generation. Long lived objects will be promoted into a space with " +
			"little headroom."}
}

func ruleUnaccountedDisabledOptions(r *Run, _ *Statistics) *Finding {
	opts := r.Jvm.UnaccountedDisabledOptions()
	if opts == "" {
		return nil
	}
	return &Finding{LevelInfo, "info.unaccounted.options.disabled",
		"Options disabled with -XX:- that no analysis accounts for: " + opts + "."}
}

func ruleStoppedTimeMissing(_ *Run, s *Statistics) *Finding {
	if s.BlockingEventCount == 0 || s.StoppedTimeEventCount > 0 {
		return nil
	}
	return &Finding{LevelInfo, "info.app.stopped.time.missing",
		"Application stopped time is not being logged. Add " +
			"-XX:+PrintGCApplicationStoppedTime to see total safepoint time, " +
			"not just GC pause time."}
}
