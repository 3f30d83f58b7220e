package gc

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// StartDateTimeLayout documents the accepted --startdatetime format,
// yyyy-MM-dd HH:mm:ss,SSS.
const StartDateTimeLayout = "2006-01-02 15:04:05,000"

var startDateTimeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2},\d{3}$`)

// ParseStartDateTime parses the JVM start date/time option value.
func ParseStartDateTime(value string) (time.Time, error) {
	if !startDateTimeRe.MatchString(value) {
		return time.Time{}, fmt.Errorf("invalid start date/time %q (expected yyyy-MM-dd HH:mm:ss,SSS)", value)
	}
	// Go reference layouts only accept '.' before fractional seconds.
	return time.Parse("2006-01-02 15:04:05.000", strings.Replace(value, ",", ".", 1))
}

// Jvm carries the externally supplied JVM context for a run: the option
// string (scanned textually by analysis rules), the start date used to
// resolve datestamp-only logging, and version/memory information when known.
type Jvm struct {
	Options   string
	StartDate *time.Time
	Version   string
	Memory    string
}

func NewJvm(options string, startDate *time.Time) *Jvm {
	return &Jvm{Options: options, StartDate: startDate}
}

// HasOption reports whether the option text contains the given flag.
func (j *Jvm) HasOption(option string) bool {
	return j != nil && strings.Contains(j.Options, option)
}

var disabledOptionRe = regexp.MustCompile(`-XX:-[A-Za-z0-9]+`)

// DisabledOptions lists every -XX:- flag present in the option string.
func (j *Jvm) DisabledOptions() []string {
	if j == nil {
		return nil
	}
	return disabledOptionRe.FindAllString(j.Options, -1)
}

// accountedDisabledOptions are the disabled flags the analysis rules know
// about; anything else disabled is surfaced by the unaccounted-options
// finding for a human to review.
var accountedDisabledOptions = map[string]bool{
	"-XX:-BackgroundCompilation":         true,
	"-XX:-ClassUnloading":                true,
	"-XX:-CMSClassUnloadingEnabled":      true,
	"-XX:-CMSParallelInitialMarkEnabled": true,
	"-XX:-CMSParallelRemarkEnabled":      true,
	"-XX:-HeapDumpOnOutOfMemoryError":    true,
	"-XX:-PrintGCCause":                  true,
	"-XX:-PrintGCDetails":                true,
	"-XX:-PrintGCTimeStamps":             true,
	"-XX:-TieredCompilation":             true,
	"-XX:-TraceClassUnloading":           true,
	"-XX:-UseAdaptiveSizePolicy":         true,
	"-XX:-UseBiasedLocking":              true,
	"-XX:-UseCompressedClassPointers":    true,
	"-XX:-UseCompressedOops":             true,
	"-XX:-UseGCLogFileRotation":          true,
	"-XX:-UseParallelOldGC":              true,
}

// UnaccountedDisabledOptions renders the disabled options no rule accounts
// for, comma separated, for the analysis finding that appends them.
func (j *Jvm) UnaccountedDisabledOptions() string {
	var unaccounted []string
	for _, opt := range j.DisabledOptions() {
		if !accountedDisabledOptions[opt] {
			unaccounted = append(unaccounted, opt)
		}
	}
	return strings.Join(unaccounted, ", ")
}
