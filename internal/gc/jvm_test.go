package gc

import (
	"testing"
	"time"
)

func TestParseStartDateTime(t *testing.T) {
	got, err := ParseStartDateTime("2009-09-18 00:00:08,172")
	if err != nil {
		t.Fatalf("ParseStartDateTime: %v", err)
	}
	want := time.Date(2009, 9, 18, 0, 0, 8, 172_000_000, time.UTC)
	if !got.Equal(want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestParseStartDateTimeInvalid(t *testing.T) {
	invalid := []string{
		"",
		"2009-09-18",
		"2009-09-18 00:00:08.172", // dot separator is not accepted
		"18-09-2009 00:00:08,172",
		"2009-09-18T00:00:08,172",
	}
	for _, s := range invalid {
		if _, err := ParseStartDateTime(s); err == nil {
			t.Errorf("ParseStartDateTime(%q) succeeded, want error", s)
		}
	}
}

func TestJvmHasOption(t *testing.T) {
	j := NewJvm("-Xmx2048m -XX:+UseConcMarkSweepGC", nil)
	if !j.HasOption("-XX:+UseConcMarkSweepGC") {
		t.Error("HasOption missed a present option")
	}
	if j.HasOption("-XX:+UseG1GC") {
		t.Error("HasOption reported an absent option")
	}

	var nilJvm *Jvm
	if nilJvm.HasOption("-Xmx") {
		t.Error("nil Jvm reported an option")
	}
}

func TestJvmDisabledOptions(t *testing.T) {
	j := NewJvm("-Xmx2g -XX:-UseBiasedLocking -XX:+PrintGCDetails -XX:-OmitStackTraceInFastThrow", nil)
	got := j.DisabledOptions()
	if len(got) != 2 {
		t.Fatalf("DisabledOptions = %v, want 2 entries", got)
	}
	if got[0] != "-XX:-UseBiasedLocking" || got[1] != "-XX:-OmitStackTraceInFastThrow" {
		t.Errorf("DisabledOptions = %v", got)
	}
}

func TestJvmUnaccountedDisabledOptions(t *testing.T) {
	tests := []struct {
		name    string
		options string
		want    string
	}{
		{"none disabled", "-Xmx2g -XX:+PrintGCDetails", ""},
		{"all accounted", "-XX:-UseBiasedLocking -XX:-PrintGCCause", ""},
		{"one unaccounted", "-XX:-UseBiasedLocking -XX:-OmitStackTraceInFastThrow",
			"-XX:-OmitStackTraceInFastThrow"},
		{"two unaccounted", "-XX:-Foo -XX:-Bar", "-XX:-Foo, -XX:-Bar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			j := NewJvm(tt.options, nil)
			if got := j.UnaccountedDisabledOptions(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}
