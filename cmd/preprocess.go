package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mabhi256/gclens/internal/gc"
)

var preprocessStartDateTime string

var preprocessCmd = &cobra.Command{
	Use:   "preprocess [gc-log-file]",
	Short: "Normalize a GC log without analyzing it",
	Long: `Rewrites a raw GC log into one-event-per-line form: unified logging
decorators are stripped, datestamps become uptime timestamps, and events
split across lines are reassembled. The result is written next to the
input as <file>.pre.`,
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeGCLogFiles,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		if _, err := os.Stat(args[0]); os.IsNotExist(err) {
			return fmt.Errorf("file does not exist: %s", args[0])
		}
		if preprocessStartDateTime != "" {
			if _, err := gc.ParseStartDateTime(preprocessStartDateTime); err != nil {
				return err
			}
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		var startTime *time.Time
		if preprocessStartDateTime != "" {
			t, err := gc.ParseStartDateTime(preprocessStartDateTime)
			if err != nil {
				return err
			}
			startTime = &t
		}

		in, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer in.Close()

		outPath := args[0] + ".pre"
		out, err := os.Create(outPath)
		if err != nil {
			return err
		}
		if err := gc.NewPreprocessor(startTime).Preprocess(in, out); err != nil {
			out.Close()
			os.Remove(outPath)
			return err
		}
		if err := out.Close(); err != nil {
			return err
		}
		fmt.Printf("Preprocessed log written to %s\n", outPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(preprocessCmd)

	preprocessCmd.Flags().StringVarP(&preprocessStartDateTime, "startdatetime", "t", "", "JVM start date/time (yyyy-MM-dd HH:mm:ss,SSS), required for datestamp-only logs")
}
