package gc

import (
	"strings"
	"testing"
)

func findingByKey(findings []Finding, key string) *Finding {
	for i := range findings {
		if findings[i].Key == key {
			return &findings[i]
		}
	}
	return nil
}

func TestAnalyzeExplicitGC(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			{Kind: VerboseGcOld, Timestamp: 0, Duration: 1000, Trigger: TriggerSystemGC},
			{Kind: VerboseGcOld, Timestamp: 5000, Duration: 1000, Trigger: TriggerSystemGC},
		},
	}
	f := findingByKey(Analyze(run), "warn.explicit.gc")
	if f == nil {
		t.Fatal("warn.explicit.gc not reported")
	}
	if f.Level != LevelWarn {
		t.Errorf("Level = %v, want warn", f.Level)
	}
	if !strings.Contains(f.Message, "2 time(s)") {
		t.Errorf("Message = %q, want invocation count", f.Message)
	}
}

func TestAnalyzeSerialCollector(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			{Kind: SerialNew, Timestamp: 0, Duration: 1000},
		},
	}
	if findingByKey(Analyze(run), "warn.gc.serial") == nil {
		t.Error("warn.gc.serial not reported")
	}
}

func TestAnalyzePromotionFailed(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			{Kind: ParNew, Timestamp: 0, Duration: 1000, Trigger: TriggerPromotionFailed},
		},
	}
	findings := Analyze(run)
	f := findingByKey(findings, "error.promotion.failed")
	if f == nil {
		t.Fatal("error.promotion.failed not reported")
	}
	// Errors sort before warnings and info.
	if findings[0].Level != LevelError {
		t.Errorf("first finding level = %v, want error", findings[0].Level)
	}
}

func TestAnalyzeInvertedParallelismNamesWorstEvent(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			{Kind: ParNew, Timestamp: 0, Duration: 1000,
				HasTimes: true, TimeUser: 1, TimeSys: 0, TimeReal: 10,
				LogEntry: "the worst pause line"},
		},
	}
	f := findingByKey(Analyze(run), "warn.parallelism.inverted")
	if f == nil {
		t.Fatal("warn.parallelism.inverted not reported")
	}
	if !strings.Contains(f.Message, "the worst pause line") {
		t.Errorf("Message = %q, want worst event log text", f.Message)
	}
}

func TestAnalyzeHeapDumpMissing(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Jvm:                 NewJvm("-Xmx2g -XX:+UseParNewGC", nil),
	}
	if findingByKey(Analyze(run), "warn.heap.dump.on.oom.missing") == nil {
		t.Error("warn.heap.dump.on.oom.missing not reported")
	}

	run = &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Jvm:                 NewJvm("-Xmx2g -XX:+HeapDumpOnOutOfMemoryError", nil),
	}
	if findingByKey(Analyze(run), "warn.heap.dump.on.oom.missing") != nil {
		t.Error("warn.heap.dump.on.oom.missing reported despite option set")
	}

	// No options supplied means nothing to judge.
	run = &Run{ThroughputThreshold: DefaultThroughputThreshold}
	if findingByKey(Analyze(run), "warn.heap.dump.on.oom.missing") != nil {
		t.Error("warn.heap.dump.on.oom.missing reported without options")
	}
}

func TestAnalyzeCmsOccupancyFraction(t *testing.T) {
	events := []*LogEvent{
		{Kind: CmsInitialMark, Timestamp: 0, Duration: 1000},
	}
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events:              events,
		Jvm:                 NewJvm("-XX:CMSInitiatingOccupancyFraction=70", nil),
	}
	if findingByKey(Analyze(run), "warn.cms.init.occupancy.only.missing") == nil {
		t.Error("warn.cms.init.occupancy.only.missing not reported")
	}

	run = &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events:              events,
		Jvm: NewJvm("-XX:CMSInitiatingOccupancyFraction=70 "+
			"-XX:+UseCMSInitiatingOccupancyOnly", nil),
	}
	if findingByKey(Analyze(run), "warn.cms.init.occupancy.only.missing") != nil {
		t.Error("reported despite UseCMSInitiatingOccupancyOnly")
	}
}

func TestAnalyzeMetaspaceVsPermGen(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			{Kind: SerialOld, Timestamp: 0, Duration: 1000,
				PermBegin: 100, PermEnd: 100, PermSpace: 512},
		},
	}
	findings := Analyze(run)
	if findingByKey(findings, "info.perm.gen") == nil {
		t.Error("info.perm.gen not reported")
	}
	if findingByKey(findings, "info.metaspace") != nil {
		t.Error("info.metaspace reported for perm gen data")
	}

	run = &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			{Kind: SerialOld, Timestamp: 0, Duration: 1000,
				PermBegin: 100, PermEnd: 100, PermSpace: 512, Metaspace: true},
		},
	}
	findings = Analyze(run)
	if findingByKey(findings, "info.metaspace") == nil {
		t.Error("info.metaspace not reported")
	}
	if findingByKey(findings, "info.perm.gen") != nil {
		t.Error("info.perm.gen reported for metaspace data")
	}
}

func TestAnalyzeUnaccountedDisabledOptions(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Jvm:                 NewJvm("-XX:-OmitStackTraceInFastThrow -XX:-UseBiasedLocking", nil),
	}
	f := findingByKey(Analyze(run), "info.unaccounted.options.disabled")
	if f == nil {
		t.Fatal("info.unaccounted.options.disabled not reported")
	}
	if !strings.Contains(f.Message, "-XX:-OmitStackTraceInFastThrow") {
		t.Errorf("Message = %q, want unaccounted option named", f.Message)
	}
	// UseBiasedLocking is accounted for and must not appear.
	if strings.Contains(f.Message, "-XX:-UseBiasedLocking") {
		t.Errorf("Message = %q, accounted option leaked in", f.Message)
	}
}

func TestAnalyzeStoppedTimeMissing(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			{Kind: ParNew, Timestamp: 0, Duration: 1000},
		},
	}
	if findingByKey(Analyze(run), "info.app.stopped.time.missing") == nil {
		t.Error("info.app.stopped.time.missing not reported")
	}

	run = &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			{Kind: ParNew, Timestamp: 0, Duration: 1000},
			{Kind: ApplicationStoppedTime, Timestamp: 0, Duration: 1100},
		},
	}
	if findingByKey(Analyze(run), "info.app.stopped.time.missing") != nil {
		t.Error("reported despite stopped time events present")
	}
}

func TestAnalyzeSeverityOrder(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			{Kind: SerialNew, Timestamp: 0, Duration: 1000, Trigger: TriggerPromotionFailed},
		},
	}
	findings := Analyze(run)
	for i := 1; i < len(findings); i++ {
		if findings[i].Level < findings[i-1].Level {
			t.Fatalf("findings out of severity order: %v before %v",
				findings[i-1].Level, findings[i].Level)
		}
	}
}
