package gc

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"
	"time"
)

// ErrMissingStartTime is returned when the log contains datestamp-only
// lines and no JVM start time was supplied. Without the start time those
// lines cannot be placed on the uptime axis.
var ErrMissingStartTime = errors.New("datestamp-only logging requires the JVM start date/time")

// DatestampLayout is the -XX:+PrintGCDateStamps format.
const DatestampLayout = "2006-01-02T15:04:05.000-0700"

var (
	// [0.101s][info][gc] GC(0) Pause Young ...
	unifiedUptimeDecorator = regexp.MustCompile(`^\[(\d{1,12}[.,]\d{3})s\](?:\[[^\]]*\])*[ ]?`)

	// [2025-07-27T06:54:55.176-0400][info][gc] GC(0) ...
	unifiedDatestampDecorator = regexp.MustCompile(`^\[(` + reDatestamp + `)\](?:\[[^\]]*\])*[ ]?`)

	// 2010-02-26T08:31:51.990-0600: 25.016: [GC ...   (datestamp + uptime)
	// 2010-02-26T08:31:51.990-0600: [GC ...            (datestamp only)
	datestampPrefix = regexp.MustCompile(`(` + reDatestamp + `): (?:(` + reUptime + `): )?`)

	// 251.763: [CMS-concurrent-mark-start]
	cmsConcurrentStart = regexp.MustCompile(`^` + reUptime + `: \[CMS-concurrent-[a-z-]+-start\]$`)

	// A concurrent phase report printed in the middle of a blocking event's
	// line. The embedded report is moved to its own line and the blocking
	// text is stitched back together.
	embeddedCmsConcurrent = regexp.MustCompile(reUptime + `: \[CMS-concurrent-[a-z-]+: ` +
		reSecs + `/` + reSecs + ` secs\](?:` + reTimes + `)?`)

	// A held fragment must look like the beginning of an event before we
	// join it with the next physical line.
	fragmentPrefix = regexp.MustCompile(`^(?:` + reDatestamp + `: )?` + reUptime + `: .*\[`)
)

// Preprocessor rewrites a raw GC log into the canonical form where every
// logical event occupies one line: unified decorators are stripped,
// datestamps become uptime timestamps, concurrent-phase start markers are
// merged into their end lines, and events split across physical lines are
// reassembled. It is a pure text transform; lines it cannot improve pass
// through untouched and fail classification downstream.
type Preprocessor struct {
	startTime *time.Time
}

func NewPreprocessor(startTime *time.Time) *Preprocessor {
	return &Preprocessor{startTime: startTime}
}

func (p *Preprocessor) Preprocess(r io.Reader, w io.Writer) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	out := bufio.NewWriter(w)

	var held string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), " \t\r")
		if line == "" {
			continue
		}

		line, err := p.normalize(line)
		if err != nil {
			return err
		}
		if line == "" {
			continue
		}

		// Pull any embedded concurrent report onto its own line before
		// reassembling the surrounding blocking event.
		for {
			loc := embeddedCmsConcurrent.FindStringIndex(line)
			if loc == nil || (loc[0] == 0 && loc[1] == len(line)) {
				break
			}
			fmt.Fprintln(out, line[loc[0]:loc[1]])
			line = line[:loc[0]] + line[loc[1]:]
		}

		if held != "" {
			// A complete concurrent line between a fragment and its
			// continuation stays on its own; the fragment keeps waiting.
			if loc := embeddedCmsConcurrent.FindStringIndex(line); loc != nil && loc[0] == 0 && loc[1] == len(line) {
				fmt.Fprintln(out, line)
				continue
			}
			line = held + line
			held = ""
		}
		if strings.Count(line, "[") > strings.Count(line, "]") && fragmentPrefix.MatchString(line) {
			held = line
			continue
		}
		fmt.Fprintln(out, line)
	}
	if held != "" {
		fmt.Fprintln(out, held)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("reading log: %w", err)
	}
	return out.Flush()
}

// normalize converts one physical line to the canonical time axis. An empty
// result means the line carried no event content of its own.
func (p *Preprocessor) normalize(line string) (string, error) {
	// Unified logging decorators.
	if m := unifiedUptimeDecorator.FindStringSubmatch(line); m != nil {
		return m[1] + ": " + line[len(m[0]):], nil
	}
	if m := unifiedDatestampDecorator.FindStringSubmatch(line); m != nil {
		uptime, err := p.datestampToUptime(m[1])
		if err != nil {
			return "", err
		}
		return uptime + ": " + line[len(m[0]):], nil
	}

	// Classic datestamps, both at the start of the line and inside inner
	// event wrappers. When an uptime follows the datestamp the datestamp is
	// redundant decoration; when it stands alone it is converted.
	var convErr error
	line = datestampPrefix.ReplaceAllStringFunc(line, func(s string) string {
		m := datestampPrefix.FindStringSubmatch(s)
		if m[2] != "" {
			return m[2] + ": "
		}
		uptime, err := p.datestampToUptime(m[1])
		if err != nil {
			convErr = err
			return s
		}
		return uptime + ": "
	})
	if convErr != nil {
		return "", convErr
	}

	// Concurrent-phase start markers carry no data beyond the timestamp;
	// the matching end line reports the phase with its wall duration, which
	// places both endpoints on the time axis.
	if cmsConcurrentStart.MatchString(line) {
		return "", nil
	}
	return line, nil
}

func (p *Preprocessor) datestampToUptime(datestamp string) (string, error) {
	if p.startTime == nil {
		return "", ErrMissingStartTime
	}
	t, err := time.Parse(DatestampLayout, datestamp)
	if err != nil {
		return "", fmt.Errorf("invalid datestamp %q: %w", datestamp, err)
	}
	return fmt.Sprintf("%.3f", t.Sub(*p.startTime).Seconds()), nil
}
