package gc

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderCap bounds the bottleneck and unidentified sections of the report.
// The full data stays on the Run; the report shows a sample plus the count.
const renderCap = 30

var (
	sectionBar   = strings.Repeat("=", 56)
	findingBar   = strings.Repeat("-", 56)
	headerStyle  = lipgloss.NewStyle().Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	summaryLabel = lipgloss.NewStyle().Width(24)
)

func levelStyle(l Level) lipgloss.Style {
	switch l {
	case LevelError:
		return errorStyle
	case LevelWarn:
		return warnStyle
	default:
		return infoStyle
	}
}

// Report renders the run summary, bottlenecks, analysis findings, and
// unidentified lines as styled text.
func Report(r *Run, findings []Finding) string {
	s := r.Statistics()
	var b strings.Builder

	if r.Jvm != nil && (r.Jvm.Options != "" || r.Jvm.Version != "" || r.Jvm.Memory != "") {
		section(&b, "JVM")
		if r.Jvm.Version != "" {
			summaryRow(&b, "Version", r.Jvm.Version)
		}
		if r.Jvm.Memory != "" {
			summaryRow(&b, "Memory", r.Jvm.Memory)
		}
		if r.Jvm.Options != "" {
			summaryRow(&b, "Options", r.Jvm.Options)
		}
	}

	section(&b, "SUMMARY")
	writeSummary(&b, r, s)

	if len(s.Bottlenecks) > 0 {
		section(&b, fmt.Sprintf("THROUGHPUT LESS THAN %d%%", r.ThroughputThreshold))
		writeCapped(&b, s.Bottlenecks)
	}

	if len(findings) > 0 {
		section(&b, "ANALYSIS")
		writeFindings(&b, findings)
	}

	section(&b, fmt.Sprintf("%d UNIDENTIFIED LOG LINE(S)", r.UnidentifiedCount()))
	writeCapped(&b, r.UnidentifiedLines())

	b.WriteString(sectionBar + "\n")
	return b.String()
}

func section(b *strings.Builder, title string) {
	b.WriteString(sectionBar + "\n")
	b.WriteString(headerStyle.Render(title+":") + "\n")
	b.WriteString(sectionBar + "\n")
}

func summaryRow(b *strings.Builder, label, value string) {
	b.WriteString(summaryLabel.Render(label+":") + " " + value + "\n")
}

func writeSummary(b *strings.Builder, r *Run, s *Statistics) {
	summaryRow(b, "# GC Events", fmt.Sprintf("%d", len(r.Events)))
	if len(r.Events) == 0 {
		return
	}

	kinds := make([]string, len(s.EventKinds))
	for i, k := range s.EventKinds {
		kinds[i] = k.String()
	}
	summaryRow(b, "Event Types", strings.Join(kinds, ", "))

	if s.MaxHeapSpace > 0 {
		summaryRow(b, "Max Heap Occupancy", fmt.Sprintf("%dK", s.MaxHeapOccupancy))
		summaryRow(b, "Max Heap Space", fmt.Sprintf("%dK", s.MaxHeapSpace))
	}
	if s.MaxHeapSpaceNonBlocking > 0 {
		summaryRow(b, "Max Heap Occupancy (non blocking)",
			fmt.Sprintf("%dK", s.MaxHeapOccupancyNonBlocking))
		summaryRow(b, "Max Heap Space (non blocking)",
			fmt.Sprintf("%dK", s.MaxHeapSpaceNonBlocking))
	}
	if s.MaxPermSpace > 0 {
		label := "Max Perm Gen"
		if s.Metaspace {
			label = "Max Metaspace"
		}
		summaryRow(b, label+" Occupancy", fmt.Sprintf("%dK", s.MaxPermOccupancy))
		summaryRow(b, label+" Space", fmt.Sprintf("%dK", s.MaxPermSpace))
	}

	if s.NewRatio > 0 {
		summaryRow(b, "New Ratio", fmt.Sprintf("%d", s.NewRatio))
	}

	if s.BlockingEventCount > 0 {
		summaryRow(b, "GC Throughput", percent(s.GCThroughput, s.ThroughputRounded))
		summaryRow(b, "GC Max Pause", fmt.Sprintf("%d ms", s.MaxGCPause))
		summaryRow(b, "GC Total Pause", fmt.Sprintf("%d ms", s.TotalGCPause))
	}
	if s.ParallelCount > 0 {
		summaryRow(b, "# Parallel Events", fmt.Sprintf("%d", s.ParallelCount))
		summaryRow(b, "# Inverted Parallelism", fmt.Sprintf("%d", s.InvertedParallelismCount))
	}
	if s.StoppedTimeEventCount > 0 {
		summaryRow(b, "Stopped Time Events", fmt.Sprintf("%d", s.StoppedTimeEventCount))
		summaryRow(b, "Stopped Time Throughput",
			percent(s.StoppedTimeThroughput, s.StoppedThroughputRounded))
		summaryRow(b, "Stopped Time Max", fmt.Sprintf("%d ms", s.MaxStoppedTime))
		summaryRow(b, "Stopped Time Total", fmt.Sprintf("%d ms", s.TotalStoppedTime))
		summaryRow(b, "GC/Stopped Ratio", fmt.Sprintf("%d%%", s.GCStoppedRatio))
	}

	summaryRow(b, "First Timestamp", fmt.Sprintf("%d ms", s.FirstEvent.Timestamp))
	summaryRow(b, "Last Timestamp", fmt.Sprintf("%d ms", s.LastEvent.EndTimestamp()))
}

// percent renders a throughput value, marking a 100 that rounding produced.
func percent(v int, rounded bool) string {
	if rounded {
		return fmt.Sprintf("~%d%%", v)
	}
	return fmt.Sprintf("%d%%", v)
}

func writeFindings(b *strings.Builder, findings []Finding) {
	var prev Level = -1
	for _, f := range findings {
		if f.Level != prev {
			if prev >= 0 {
				b.WriteString(findingBar + "\n")
			}
			b.WriteString(levelStyle(f.Level).Render(f.Level.String()) + "\n")
			b.WriteString(findingBar + "\n")
			prev = f.Level
		}
		b.WriteString("* " + f.Message + "\n")
	}
}

func writeCapped(b *strings.Builder, lines []string) {
	for i, line := range lines {
		if i == renderCap {
			b.WriteString(dimStyle.Render("...") + "\n")
			break
		}
		b.WriteString(line + "\n")
	}
}
