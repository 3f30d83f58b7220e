package gc

import (
	"math"
	"regexp"
)

// Grammar building blocks. Every classic-logging grammar starts with an
// optional datestamp and the uptime timestamp; inner wrappers may repeat the
// pair ("20.189: [GC 20.190: [ParNew: ...").
const (
	rePrefix      = `^(?:` + reDatestamp + `: )?(?P<ts>` + reUptime + `): `
	reInnerPrefix = `(?:` + reDatestamp + `: )?(?:` + reUptime + `: )?`
	reOptTimes    = `(?:` + reTimes + `)?[ ]*$`
)

var (
	// 20.189: [GC 20.190: [ParNew: 86199K->8454K(91712K), 0.0375060 secs] 89399K->11655K(907328K), 0.0387074 secs]
	// 6.703: [GC (Allocation Failure) 6.703: [ParNew: 886080K->11485K(996800K), 0.0193349 secs] 886080K->11485K(1986432K), 0.0198375 secs] [Times: user=0.09 sys=0.01, real=0.02 secs]
	// 18934.651: [Full GC 18934.651: [ParNew: 253303K->7680K(254464K), 0.2377648 secs] 866808K->648302K(1040896K), 0.2380553 secs]
	// 2013-12-09T16:18:17.813+0000: 13.086: [GC2013-12-09T16:18:17.813+0000: 13.086: [ParNew: 272640K->33532K(306688K), 0.0381419 secs] 272640K->33532K(1014528K), 0.0383306 secs]
	parNewRe = regexp.MustCompile(rePrefix +
		`\[(?:Full )?GC(?: \((?P<trigger>` + reTrigger + `)\))?[ ]?` + reInnerPrefix +
		`\[ParNew(?: \((?P<trigger2>promotion failed)\))?: ` +
		`(?P<yb>` + reSizeK + `)K->(?P<ye>` + reSizeK + `)K\((?P<ys>` + reSizeK + `)K\), ` + reSecs + ` secs\] ` +
		`(?:(?P<tb>` + reSizeK + `)K->)?(?P<te>` + reSizeK + `)K\((?P<tsp>` + reSizeK + `)K\), ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)

	// 7.798: [GC 7.798: [DefNew: 37172K->3631K(39296K), 0.0209300 secs] 41677K->10314K(126720K), 0.0210210 secs]
	serialNewRe = regexp.MustCompile(rePrefix +
		`\[GC(?: \((?P<trigger>` + reTrigger + `)\))?[ ]?` + reInnerPrefix +
		`\[DefNew: ` +
		`(?P<yb>` + reSizeK + `)K->(?P<ye>` + reSizeK + `)K\((?P<ys>` + reSizeK + `)K\), ` + reSecs + ` secs\] ` +
		`(?:(?P<tb>` + reSizeK + `)K->)?(?P<te>` + reSizeK + `)K\((?P<tsp>` + reSizeK + `)K\), ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)

	// 2.417: [Full GC [PSYoungGen: 1788K->0K(12736K)] [ParOldGen: 1084K->2843K(116544K)] 2872K->2843K(129280K) [PSPermGen: 8602K->8593K(131072K)], 0.1028360 secs]
	// 1.234: [Full GC (Metadata GC Threshold) [PSYoungGen: 17779K->0K(603136K)] [ParOldGen: 16K->16894K(1312256K)] 17795K->16894K(1915392K), [Metaspace: 19114K->19114K(1067008K)], 0.0352132 secs] [Times: user=0.09 sys=0.00, real=0.04 secs]
	parallelCompactingOldRe = regexp.MustCompile(rePrefix +
		`\[Full GC(?: \((?P<trigger>` + reTrigger + `)\))?[ ]?` +
		`\[PSYoungGen: (?P<yb>` + reSizeK + `)K->(?P<ye>` + reSizeK + `)K\((?P<ys>` + reSizeK + `)K\)\] ` +
		`\[ParOldGen: (?P<ob>` + reSizeK + `)K->(?P<oe>` + reSizeK + `)K\((?P<os>` + reSizeK + `)K\)\] ` +
		`(?:` + reSizeK + `)K->(?:` + reSizeK + `)K\((?:` + reSizeK + `)K\),? ` +
		`\[(?P<permlabel>PSPermGen|Metaspace): (?P<pb>` + reSizeK + `)K->(?P<pe>` + reSizeK + `)K\((?P<psp>` + reSizeK + `)K\)\], ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)

	// 19810.091: [GC [PSYoungGen: 27808K->632K(28032K)] 160183K->133159K(585088K), 0.0225213 secs]
	// 1.219: [GC (Allocation Failure) [PSYoungGen: 508K->385K(1024K)] 1270K->1147K(129280K), 0.0003690 secs]
	parallelScavengeRe = regexp.MustCompile(rePrefix +
		`\[GC(?:--)?(?: \((?P<trigger>` + reTrigger + `)\))? ` + reInnerPrefix +
		`\[PSYoungGen: (?P<yb>` + reSizeK + `)K->(?P<ye>` + reSizeK + `)K\((?P<ys>` + reSizeK + `)K\)\] ` +
		`(?P<tb>` + reSizeK + `)K->(?P<te>` + reSizeK + `)K\((?P<tsp>` + reSizeK + `)K\), ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)

	// 187.159: [Full GC 187.160: [Tenured: 97171K->102832K(815616K), 0.6977443 secs] 152213K->102832K(907328K), [Perm : 49152K->49154K(49158K)], 0.6929258 secs]
	serialOldRe = regexp.MustCompile(rePrefix +
		`\[Full GC(?: \((?P<trigger>` + reTrigger + `)\))?[ ]?` + reInnerPrefix +
		`\[Tenured: (?P<ob>` + reSizeK + `)K->(?P<oe>` + reSizeK + `)K\((?P<os>` + reSizeK + `)K\), ` + reSecs + ` secs\] ` +
		`(?P<tb>` + reSizeK + `)K->(?P<te>` + reSizeK + `)K\((?P<tsp>` + reSizeK + `)K\)` +
		`(?:, \[(?P<permlabel>Perm |Metaspace): (?P<pb>` + reSizeK + `)K->(?P<pe>` + reSizeK + `)K\((?P<psp>` + reSizeK + `)K\)\])?, ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)

	// 251.763: [GC [1 CMS-initial-mark: 4133273K(8218240K)] 4150346K(8367360K), 0.0174433 secs]
	// 8.722: [GC (CMS Initial Mark) [1 CMS-initial-mark: 0K(989632K)] 187K(1986432K), 0.0157337 secs] [Times: user=0.02 sys=0.00, real=0.02 secs]
	cmsInitialMarkRe = regexp.MustCompile(rePrefix +
		`\[GC(?: \((?P<trigger>CMS Initial Mark)\))?[ ]?` +
		`\[1 CMS-initial-mark: (?P<ob>` + reSizeK + `)K\((?P<os>` + reSizeK + `)K\)\] ` +
		`(?P<cb>` + reSizeK + `)K\((?P<cs>` + reSizeK + `)K\), ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)

	// 76694.727: [GC[Rescan (parallel) , 0.0862863 secs][weak refs processing, 0.0046648 secs] [1 CMS-remark: 443542K(4023936K)] 449471K(4177280K), 0.0949603 secs]
	cmsRemarkRe = regexp.MustCompile(rePrefix +
		`\[GC(?: \((?P<trigger>CMS Final Remark)\))?.*` +
		`\[1 CMS-remark: (?P<ob>` + reSizeK + `)K\((?P<os>` + reSizeK + `)K\)\] ` +
		`(?P<cb>` + reSizeK + `)K\((?P<cs>` + reSizeK + `)K\), ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)

	// 251.781: [CMS-concurrent-mark: 2.812/2.907 secs]
	// 252.707: [CMS-concurrent-abortable-preclean: 0.263/0.552 secs] [Times: user=0.88 sys=0.03, real=0.56 secs]
	cmsConcurrentRe = regexp.MustCompile(rePrefix +
		`\[CMS-concurrent-(?:mark|abortable-preclean|preclean|sweep|reset): ` +
		reSecs + `/(?P<wall>` + reSecs + `) secs\]` + reOptTimes)

	// 1.305: [GC pause (young) 102M->24M(512M), 0.0254200 secs]
	// 2.847: [GC pause (G1 Evacuation Pause) (young) 136M->35M(3128M), 0.0600116 secs]
	g1YoungPauseRe = regexp.MustCompile(rePrefix +
		`\[GC pause(?: \((?P<trigger>` + reTrigger + `)\))? \(young\)(?: \(initial-mark\))? ` +
		`(?P<cb>` + reSizeK + `)(?P<cbu>[BKMG])->(?P<ce>` + reSizeK + `)(?P<ceu>[BKMG])` +
		`\((?P<cs>` + reSizeK + `)(?P<csu>[BKMG])\), ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)

	// 5060.152: [Full GC (System.gc()) 2270M->2038M(3398M), 5.8360430 secs]
	g1FullGCRe = regexp.MustCompile(rePrefix +
		`\[Full GC(?: \((?P<trigger>` + reTrigger + `)\))? ` +
		`(?P<cb>` + reSizeK + `)(?P<cbu>[MG])->(?P<ce>` + reSizeK + `)(?P<ceu>[MG])` +
		`\((?P<cs>` + reSizeK + `)(?P<csu>[MG])\), ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)

	// 0.101: GC(0) Pause Young (Normal) (G1 Evacuation Pause) 9M->2M(16M) 5.326ms
	// (unified logging after preprocessing strips the decorator brackets)
	unifiedG1YoungPauseRe = regexp.MustCompile(rePrefix +
		`GC\(\d{1,7}\) Pause Young` +
		`(?:(?: \((?P<trigger>` + reTrigger + `)\))|(?: \((?P<subtype>[^()]+)\)))* ` +
		`(?P<cb>` + reSizeK + `)(?P<cbu>[KMG])->(?P<ce>` + reSizeK + `)(?P<ceu>[KMG])` +
		`\((?P<cs>` + reSizeK + `)(?P<csu>[KMG])\) ` +
		`(?P<durms>\d{1,7}(?:[.,]\d{1,3})?)ms[ ]*$`)

	// 0.963: Total time for which application threads were stopped: 0.0468229 seconds
	// 35952.084: Total time for which application threads were stopped: 40.6810160 seconds, Stopping threads took: 0.0001152 seconds
	applicationStoppedTimeRe = regexp.MustCompile(`^(?:` + reDatestamp + `: )?(?:(?P<ts>` + reUptime + `): )?` +
		`Total time for which application threads were stopped: (?P<dur>` + reSecs + `) seconds` +
		`(?:, Stopping threads took: ` + reSecs + ` seconds)?[ ]*$`)

	// 2205570.508: [GC 1726387K->773247K(3097984K), 0.2318035 secs]
	verboseGcYoungRe = regexp.MustCompile(rePrefix +
		`\[GC(?:--)?(?: \((?P<trigger>` + reTrigger + `)\))? ` +
		`(?P<cb>` + reSizeK + `)K->(?P<ce>` + reSizeK + `)K\((?P<cs>` + reSizeK + `)K\), ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)

	// 2.457: [Full GC 227K->213K(960K), 0.0245629 secs]
	verboseGcOldRe = regexp.MustCompile(rePrefix +
		`\[Full GC(?: \((?P<trigger>` + reTrigger + `)\))? ` +
		`(?P<cb>` + reSizeK + `)K->(?P<ce>` + reSizeK + `)K\((?P<cs>` + reSizeK + `)K\), ` +
		`(?P<dur>` + reSecs + `) secs\]` + reOptTimes)
)

// grammarTable is the ordered registry catalog. Specific grammars come
// before general ones: the detailed young-collection grammars must precede
// the VERBOSE_GC catch-alls whose text they structurally contain.
func grammarTable() []grammar {
	return []grammar{
		{ParNew, parNewRe, extractYoungCombined},
		{SerialNew, serialNewRe, extractYoungCombined},
		{ParallelCompactingOld, parallelCompactingOldRe, extractParallelCompactingOld},
		{ParallelScavenge, parallelScavengeRe, extractYoungCombined},
		{SerialOld, serialOldRe, extractSerialOld},
		{CmsInitialMark, cmsInitialMarkRe, extractCmsMark},
		{CmsRemark, cmsRemarkRe, extractCmsMark},
		{CmsConcurrent, cmsConcurrentRe, extractCmsConcurrent},
		{G1YoungPause, g1YoungPauseRe, extractSizedCombined},
		{G1FullGC, g1FullGCRe, extractSizedCombined},
		{UnifiedG1YoungPause, unifiedG1YoungPauseRe, extractUnifiedG1YoungPause},
		{ApplicationStoppedTime, applicationStoppedTimeRe, extractApplicationStoppedTime},
		{VerboseGcYoung, verboseGcYoungRe, extractVerboseCombined},
		{VerboseGcOld, verboseGcOldRe, extractVerboseCombined},
	}
}

// extractTrigger applies the last-non-null rule: a phase-specific inner
// trigger overrides the generic outer one.
func extractTrigger(m match) Trigger {
	t := Trigger(m.get("trigger"))
	if inner := m.get("trigger2"); inner != "" {
		t = Trigger(inner)
	}
	return t
}

// extractYoungCombined handles grammars that report young-generation detail
// plus whole-heap totals (ParNew, DefNew, PSYoungGen). The old generation is
// not reported literally and must be back-computed as total minus young.
func extractYoungCombined(m match) (*LogEvent, error) {
	ev := &LogEvent{Trigger: extractTrigger(m)}
	var err error
	if ev.Timestamp, err = m.millis("ts"); err != nil {
		return nil, err
	}
	if ev.Duration, err = m.micros("dur"); err != nil {
		return nil, err
	}
	if ev.YoungBegin, err = m.sizeK("yb"); err != nil {
		return nil, err
	}
	if ev.YoungEnd, err = m.sizeK("ye"); err != nil {
		return nil, err
	}
	if ev.YoungSpace, err = m.sizeK("ys"); err != nil {
		return nil, err
	}
	totalEnd, err := m.sizeK("te")
	if err != nil {
		return nil, err
	}
	totalSpace, err := m.sizeK("tsp")
	if err != nil {
		return nil, err
	}
	ev.OldEnd = totalEnd - ev.YoungEnd
	ev.OldSpace = totalSpace - ev.YoungSpace
	if tb := m.get("tb"); tb != "" {
		totalBegin, err := parseSizeK(tb)
		if err != nil {
			return nil, err
		}
		ev.OldBegin = totalBegin - ev.YoungBegin
	} else {
		// Logging without the combined begin size. Assume nothing was
		// promoted or collected from the old generation.
		ev.OldBegin = ev.OldEnd
	}
	if err := m.times(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func extractParallelCompactingOld(m match) (*LogEvent, error) {
	ev := &LogEvent{Trigger: extractTrigger(m)}
	var err error
	if ev.Timestamp, err = m.millis("ts"); err != nil {
		return nil, err
	}
	if ev.Duration, err = m.micros("dur"); err != nil {
		return nil, err
	}
	if ev.YoungBegin, err = m.sizeK("yb"); err != nil {
		return nil, err
	}
	if ev.YoungEnd, err = m.sizeK("ye"); err != nil {
		return nil, err
	}
	if ev.YoungSpace, err = m.sizeK("ys"); err != nil {
		return nil, err
	}
	if ev.OldBegin, err = m.sizeK("ob"); err != nil {
		return nil, err
	}
	if ev.OldEnd, err = m.sizeK("oe"); err != nil {
		return nil, err
	}
	if ev.OldSpace, err = m.sizeK("os"); err != nil {
		return nil, err
	}
	if err := extractPerm(m, ev); err != nil {
		return nil, err
	}
	if err := m.times(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// extractSerialOld handles Tenured logging: old-generation detail plus
// whole-heap totals, so the young generation is derived as total minus old.
func extractSerialOld(m match) (*LogEvent, error) {
	ev := &LogEvent{Trigger: extractTrigger(m)}
	var err error
	if ev.Timestamp, err = m.millis("ts"); err != nil {
		return nil, err
	}
	if ev.Duration, err = m.micros("dur"); err != nil {
		return nil, err
	}
	if ev.OldBegin, err = m.sizeK("ob"); err != nil {
		return nil, err
	}
	if ev.OldEnd, err = m.sizeK("oe"); err != nil {
		return nil, err
	}
	if ev.OldSpace, err = m.sizeK("os"); err != nil {
		return nil, err
	}
	totalBegin, err := m.sizeK("tb")
	if err != nil {
		return nil, err
	}
	totalEnd, err := m.sizeK("te")
	if err != nil {
		return nil, err
	}
	totalSpace, err := m.sizeK("tsp")
	if err != nil {
		return nil, err
	}
	ev.YoungBegin = totalBegin - ev.OldBegin
	ev.YoungEnd = totalEnd - ev.OldEnd
	ev.YoungSpace = totalSpace - ev.OldSpace
	if err := extractPerm(m, ev); err != nil {
		return nil, err
	}
	if err := m.times(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func extractPerm(m match, ev *LogEvent) error {
	label := m.get("permlabel")
	if label == "" {
		return nil
	}
	var err error
	if ev.PermBegin, err = m.sizeK("pb"); err != nil {
		return err
	}
	if ev.PermEnd, err = m.sizeK("pe"); err != nil {
		return err
	}
	if ev.PermSpace, err = m.sizeK("psp"); err != nil {
		return err
	}
	ev.Metaspace = label == "Metaspace"
	return nil
}

// extractCmsMark handles the CMS safepoints (initial mark, remark), which
// report old-generation and whole-heap occupancy without a delta.
func extractCmsMark(m match) (*LogEvent, error) {
	ev := &LogEvent{Trigger: extractTrigger(m)}
	var err error
	if ev.Timestamp, err = m.millis("ts"); err != nil {
		return nil, err
	}
	if ev.Duration, err = m.micros("dur"); err != nil {
		return nil, err
	}
	if ev.OldBegin, err = m.sizeK("ob"); err != nil {
		return nil, err
	}
	ev.OldEnd = ev.OldBegin
	if ev.OldSpace, err = m.sizeK("os"); err != nil {
		return nil, err
	}
	if ev.CombinedBegin, err = m.sizeK("cb"); err != nil {
		return nil, err
	}
	ev.CombinedEnd = ev.CombinedBegin
	if ev.CombinedSpace, err = m.sizeK("cs"); err != nil {
		return nil, err
	}
	if err := m.times(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// extractCmsConcurrent uses the phase's wall time as the duration; the
// first number is CPU time spent by the concurrent worker. The canonical
// line is printed when the phase ends, so the phase start is the line's
// timestamp minus the wall time.
func extractCmsConcurrent(m match) (*LogEvent, error) {
	ev := &LogEvent{}
	var err error
	if ev.Timestamp, err = m.millis("ts"); err != nil {
		return nil, err
	}
	if ev.Duration, err = m.micros("wall"); err != nil {
		return nil, err
	}
	if d := ev.Duration / 1000; d <= ev.Timestamp {
		ev.Timestamp -= d
	} else {
		ev.Timestamp = 0
	}
	if err := m.times(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// extractSizedCombined handles legacy G1 logging, which reports whole-heap
// sizes with a unit suffix instead of the classic bare-kilobyte triples.
func extractSizedCombined(m match) (*LogEvent, error) {
	ev := &LogEvent{Trigger: extractTrigger(m)}
	var err error
	if ev.Timestamp, err = m.millis("ts"); err != nil {
		return nil, err
	}
	if ev.Duration, err = m.micros("dur"); err != nil {
		return nil, err
	}
	if ev.CombinedBegin, err = m.size("cb", "cbu"); err != nil {
		return nil, err
	}
	if ev.CombinedEnd, err = m.size("ce", "ceu"); err != nil {
		return nil, err
	}
	if ev.CombinedSpace, err = m.size("cs", "csu"); err != nil {
		return nil, err
	}
	if err := m.times(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func extractUnifiedG1YoungPause(m match) (*LogEvent, error) {
	ev := &LogEvent{Trigger: extractTrigger(m)}
	var err error
	if ev.Timestamp, err = m.millis("ts"); err != nil {
		return nil, err
	}
	durms, err := decimal(m.get("durms"))
	if err != nil {
		return nil, err
	}
	ev.Duration = int64(math.Round(durms * 1000))
	if ev.CombinedBegin, err = m.size("cb", "cbu"); err != nil {
		return nil, err
	}
	if ev.CombinedEnd, err = m.size("ce", "ceu"); err != nil {
		return nil, err
	}
	if ev.CombinedSpace, err = m.size("cs", "csu"); err != nil {
		return nil, err
	}
	return ev, nil
}

func extractApplicationStoppedTime(m match) (*LogEvent, error) {
	ev := &LogEvent{}
	var err error
	if ev.Timestamp, err = m.millis("ts"); err != nil {
		return nil, err
	}
	if ev.Duration, err = m.micros("dur"); err != nil {
		return nil, err
	}
	return ev, nil
}

func extractVerboseCombined(m match) (*LogEvent, error) {
	ev := &LogEvent{Trigger: extractTrigger(m)}
	var err error
	if ev.Timestamp, err = m.millis("ts"); err != nil {
		return nil, err
	}
	if ev.Duration, err = m.micros("dur"); err != nil {
		return nil, err
	}
	if ev.CombinedBegin, err = m.sizeK("cb"); err != nil {
		return nil, err
	}
	if ev.CombinedEnd, err = m.sizeK("ce"); err != nil {
		return nil, err
	}
	if ev.CombinedSpace, err = m.sizeK("cs"); err != nil {
		return nil, err
	}
	if err := m.times(ev); err != nil {
		return nil, err
	}
	return ev, nil
}
