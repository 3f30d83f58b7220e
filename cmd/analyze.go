package cmd

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mabhi256/gclens/internal/config"
	"github.com/mabhi256/gclens/internal/gc"
)

var (
	configPath    string
	jvmOptions    string
	startDateTime string
	preprocess    bool
	threshold     int
	reorder       bool
	outputPath    string
)

var analyzeCmd = &cobra.Command{
	Use:               "analyze [gc-log-file]",
	Short:             "Analyze a GC log file",
	Long: `Parses a garbage collection log, prints summary statistics
(throughput, pauses, heap extremes) and diagnostic findings, and lists
any lines that could not be identified.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeGCLogFiles,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		logFile := args[0]
		if !isValidGCLogFile(logFile) {
			return fmt.Errorf("invalid GC log file: %s", logFile)
		}
		if _, err := os.Stat(logFile); os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", logFile)
		}

		if startDateTime != "" {
			if _, err := gc.ParseStartDateTime(startDateTime); err != nil {
				return err
			}
		}
		if cmd.Flags().Changed("threshold") && (threshold <= 0 || threshold > 100) {
			return fmt.Errorf("threshold must be in 1..100, got %d", threshold)
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		var startTime *time.Time
		if startDateTime != "" {
			t, err := gc.ParseStartDateTime(startDateTime)
			if err != nil {
				return err
			}
			startTime = &t
		}

		logFile := args[0]
		if cfg.Preprocess {
			pre, err := preprocessToTemp(logFile, startTime)
			if err != nil {
				return err
			}
			defer os.Remove(pre)
			logFile = pre
		}

		f, err := os.Open(logFile)
		if err != nil {
			return err
		}
		defer f.Close()

		manager := gc.NewManager()
		manager.SetRejectLimit(cfg.RejectLimit)
		run, err := manager.Store(f, reorder)
		if err != nil {
			var warp *gc.TimeWarpError
			if !errors.As(err, &warp) {
				return err
			}
			// The run is still usable; report on what was ingested.
			fmt.Fprintf(os.Stderr, "warning: %v\n", warp)
			if !reorder {
				fmt.Fprintln(os.Stderr, "The log is out of order; consider --reorder, or check for clock changes on the host.")
			}
		}

		run.Jvm = gc.NewJvm(cfg.JvmOptions, startTime)
		run.ThroughputThreshold = cfg.Threshold

		report := gc.Report(run, gc.Analyze(run))
		if outputPath != "" {
			return os.WriteFile(outputPath, []byte(report), 0644)
		}
		fmt.Print(report)
		return nil
	},
}

// loadConfig merges ~/.gclens.yaml (or --config) with the command line;
// a flag the user set wins over the file.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.DefaultPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if cmd.Flags().Changed("threshold") {
		cfg.Threshold = threshold
	}
	if cmd.Flags().Changed("preprocess") {
		cfg.Preprocess = preprocess
	}
	if cmd.Flags().Changed("jvmoptions") {
		cfg.JvmOptions = jvmOptions
	}
	return cfg, nil
}

// preprocessToTemp normalizes the log into a temp file and returns its path.
func preprocessToTemp(logFile string, startTime *time.Time) (string, error) {
	in, err := os.Open(logFile)
	if err != nil {
		return "", err
	}
	defer in.Close()

	out, err := os.CreateTemp("", "gclens-*.pre")
	if err != nil {
		return "", err
	}
	if err := gc.NewPreprocessor(startTime).Preprocess(in, out); err != nil {
		out.Close()
		os.Remove(out.Name())
		return "", err
	}
	if err := out.Close(); err != nil {
		os.Remove(out.Name())
		return "", err
	}
	return out.Name(), nil
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&configPath, "config", "", "Config file (default ~/.gclens.yaml)")
	analyzeCmd.Flags().StringVarP(&jvmOptions, "jvmoptions", "j", "", "JVM options used when running the application")
	analyzeCmd.Flags().StringVarP(&startDateTime, "startdatetime", "t", "", "JVM start date/time (yyyy-MM-dd HH:mm:ss,SSS), required for datestamp-only logs")
	analyzeCmd.Flags().BoolVarP(&preprocess, "preprocess", "p", false, "Normalize the log before analysis")
	analyzeCmd.Flags().IntVar(&threshold, "threshold", gc.DefaultThroughputThreshold, "Throughput percentage below which an interval is a bottleneck")
	analyzeCmd.Flags().BoolVarP(&reorder, "reorder", "r", false, "Sort events by timestamp before the chronology check")
	analyzeCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the report to a file instead of stdout")
}

func completeGCLogFiles(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	// Get current directory files
	files, _ := os.ReadDir(".")

	var validFiles []string
	for _, file := range files {
		if !file.IsDir() && isValidGCLogFile(file.Name()) {
			validFiles = append(validFiles, file.Name())
		}
	}

	return validFiles, cobra.ShellCompDirectiveNoFileComp
}

func isValidGCLogFile(filename string) bool {
	// Basic .log/.txt extensions plus preprocessed output
	if strings.HasSuffix(filename, ".log") || strings.HasSuffix(filename, ".txt") ||
		strings.HasSuffix(filename, ".pre") {
		return true
	}

	// Rotated logs: .log.0, .log.1, .log.2, etc.
	re := regexp.MustCompile(`\.log\.\d+$`)
	return re.MatchString(filename)
}
