package gc

import (
	"fmt"
	"strings"
	"testing"
)

func TestReportSummary(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			blockingEvent(0, 500_000),
			blockingEvent(9500, 500_000),
		},
	}
	out := Report(run, Analyze(run))
	for _, want := range []string{
		"SUMMARY:",
		"# GC Events:",
		"PAR_NEW",
		"GC Throughput:",
		"90%",
		"GC Max Pause:",
		"500 ms",
		"0 UNIDENTIFIED LOG LINE(S):",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestReportThroughputRoundedMarker(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			blockingEvent(0, 1000),
			blockingEvent(1_000_000, 1000),
		},
	}
	out := Report(run, nil)
	if !strings.Contains(out, "~100%") {
		t.Errorf("report missing ~100%% marker:\n%s", out)
	}
}

func TestReportCapsUnidentifiedLines(t *testing.T) {
	run := &Run{ThroughputThreshold: DefaultThroughputThreshold}
	for i := 0; i < 50; i++ {
		run.unidentified = append(run.unidentified, fmt.Sprintf("mystery line %d", i))
	}
	run.unidentifiedCount = 50

	out := Report(run, nil)
	if !strings.Contains(out, "50 UNIDENTIFIED LOG LINE(S):") {
		t.Errorf("report missing full unidentified count:\n%s", out)
	}
	if !strings.Contains(out, "mystery line 29") {
		t.Error("report missing last line under the cap")
	}
	if strings.Contains(out, "mystery line 30") {
		t.Error("report shows lines past the cap")
	}
	if !strings.Contains(out, "...") {
		t.Error("report missing truncation marker")
	}
}

func TestReportGroupsFindingsBySeverity(t *testing.T) {
	run := &Run{
		ThroughputThreshold: DefaultThroughputThreshold,
		Events: []*LogEvent{
			{Kind: SerialNew, Timestamp: 0, Duration: 1000, Trigger: TriggerPromotionFailed},
		},
	}
	out := Report(run, Analyze(run))
	errIdx := strings.Index(out, "Promotion failed")
	warnIdx := strings.Index(out, "serial collector")
	if errIdx < 0 || warnIdx < 0 {
		t.Fatalf("expected findings missing:\n%s", out)
	}
	if errIdx > warnIdx {
		t.Error("error finding rendered after warning")
	}
}
