package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dyluth/roadmapper/internal/printer"
	"github.com/dyluth/roadmapper/internal/watch"
	"github.com/dyluth/roadmapper/pkg/roadmap"
	"github.com/spf13/cobra"
)

var (
	watchOutputFormat string
	watchOnce         bool
	watchTimeout      time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Follow saves of the current project's roadmap",
	Long: `Follow saves of the current project's roadmap made by any editor.

With the redis backend every save is streamed as it is published. Other
backends poll at sync.poll_interval and report each newer version.

Output Formats:
  default - One line per save with a summary of what changed
  json    - Line-delimited JSON, one roadmap document per line

Examples:
  # Follow saves
  roadmapper watch

  # Wait up to a minute for the next save, then exit
  roadmapper watch --once --timeout 1m

  # Export every version as JSON
  roadmapper watch --output=json > versions.jsonl`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	var format watch.OutputFormat
	switch watchOutputFormat {
	case "default":
		format = watch.OutputFormatDefault
	case "json":
		format = watch.OutputFormatJSON
	default:
		return printer.Error(
			"invalid output format",
			fmt.Sprintf("Unknown format: %s", watchOutputFormat),
			[]string{"Valid formats: default, json"},
		)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := openRoadmap(ctx)
	if err != nil {
		return err
	}
	defer s.Close()

	f, err := watch.NewFormatter(format, printer.Out())
	if err != nil {
		return err
	}

	if watchOnce {
		since := s.store.Snapshot().UpdatedAt
		r, err := watch.PollForUpdate(ctx, s.backend.remote(), s.projectID, since, watchTimeout)
		if err != nil {
			return printer.Error(
				"no update received",
				fmt.Sprintf("Error: %v", err),
				nil,
			)
		}
		return f.FormatUpdate(r)
	}

	if s.backend.redis != nil {
		return watch.Stream(ctx, s.backend.redis, s.projectID, format, printer.Out())
	}

	s.rec.OnRemoteApplied(func(r *roadmap.Roadmap) {
		if err := f.FormatUpdate(r); err != nil {
			printer.Warning("failed to write update: %v\n", err)
		}
	})
	return s.rec.Run(ctx)
}

func init() {
	watchCmd.Flags().StringVarP(&watchOutputFormat, "output", "o", "default", "Output format (default or json)")
	watchCmd.Flags().BoolVar(&watchOnce, "once", false, "Exit after the next save")
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", time.Minute, "How long --once waits")
	rootCmd.AddCommand(watchCmd)
}
