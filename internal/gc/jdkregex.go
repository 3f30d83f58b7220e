package gc

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Shared grammar fragments. Individual grammars compose these the same way
// the JVM composes its logging: an optional datestamp, an uptime, event tags,
// before->after(capacity) size triples, a duration, and an optional trailing
// [Times: ...] block. Decimal separators accept both '.' and ',' because
// -XX:+PrintGCDetails honors the process locale.
const (
	// 2010-02-26T08:31:51.990-0600
	reDatestamp = `\d{4}-\d{2}-\d{2}T\d{2}:\d{2}:\d{2}\.\d{3}[+-]\d{4}`

	// 20.189 (seconds since JVM start, 3 decimal places)
	reUptime = `\d{0,12}[.,]\d{3}`

	// 86199K
	reSizeK = `\d{1,9}`

	// 0.0375060 (grammars append the " secs" / " seconds" literal)
	reSecs = `\d{1,7}[.,]\d{1,7}`

	// [Times: user=0.06 sys=0.01, real=0.02 secs]
	reTimes = ` \[Times: user=(?P<user>\d{1,5}[.,]\d{2}) sys=(?P<sys>\d{1,5}[.,]\d{2}), real=(?P<real>\d{1,5}[.,]\d{2}) secs\]`
)

// reTrigger is the fixed trigger vocabulary as printed inside parentheses.
const reTrigger = `Allocation Failure|System\.gc\(\)|Metadata GC Threshold|Ergonomics|` +
	`Heap Dump Initiated GC|GCLocker Initiated GC|CMS Initial Mark|CMS Final Remark|` +
	`Last ditch collection|To-space Exhausted|G1 Evacuation Pause|G1 Humongous Allocation`

func decimal(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
}

// toMillis converts a fractional-seconds uptime ("20.189") to whole
// milliseconds since JVM start.
func toMillis(secs string) (int64, error) {
	v, err := decimal(secs)
	if err != nil {
		return 0, fmt.Errorf("invalid uptime %q: %w", secs, err)
	}
	return int64(math.Round(v * 1000)), nil
}

// toMicros converts a fractional-seconds duration ("0.0375060") to
// microseconds, rounded to the nearest integer.
func toMicros(secs string) (int64, error) {
	v, err := decimal(secs)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", secs, err)
	}
	return int64(math.Round(v * 1000000)), nil
}

// toCentis converts a [Times: ...] value ("0.06") to centiseconds.
func toCentis(secs string) (int, error) {
	v, err := decimal(secs)
	if err != nil {
		return 0, fmt.Errorf("invalid times value %q: %w", secs, err)
	}
	return int(math.Round(v * 100)), nil
}

// parseSizeK parses a bare kilobyte count ("86199").
func parseSizeK(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	return v, nil
}

// parseSize converts a sized value with a B/K/M/G unit suffix to kilobytes.
// G1 and unified logging report whole-heap sizes in the largest fitting unit.
func parseSize(value, unit string) (int64, error) {
	v, err := decimal(value)
	if err != nil {
		return 0, fmt.Errorf("invalid size %q%s: %w", value, unit, err)
	}
	switch unit {
	case "B":
		return int64(math.Round(v / 1024)), nil
	case "K", "":
		return int64(math.Round(v)), nil
	case "M":
		return int64(math.Round(v * 1024)), nil
	case "G":
		return int64(math.Round(v * 1024 * 1024)), nil
	default:
		return 0, fmt.Errorf("unknown size unit %q", unit)
	}
}
