package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/moldtrack/internal/app"
	"github.com/YoshitsuguKoike/moldtrack/internal/application/usecase/tracker"
	"github.com/YoshitsuguKoike/moldtrack/internal/domain/record"
	"github.com/YoshitsuguKoike/moldtrack/internal/domain/snapshot"
	"github.com/YoshitsuguKoike/moldtrack/internal/infra/source"
)

// TrackOutput is the machine-readable summary of one tracker run
type TrackOutput struct {
	Tracker     string          `json:"tracker"`
	RunID       string          `json:"run_id"`
	Changed     bool            `json:"changed"`
	Reason      string          `json:"reason"`
	Key         string          `json:"key"`
	PreviousKey string          `json:"previous_key,omitempty"`
	Added       []snapshot.Pair `json:"added"`
	Removed     []snapshot.Pair `json:"removed"`
	Entries     []string        `json:"entries"`
	Written     []string        `json:"written"`
}

type trackFlags struct {
	records    string
	cutoff     string
	jsonOutput bool
}

func newTrackCmd() *cobra.Command {
	var flags trackFlags

	cmd := &cobra.Command{
		Use:   "track <layout|pairing|all>",
		Short: "Detect configuration changes and save a new version when one occurred",
		Long: `Derive the current configuration from the production log, compare it with
the latest saved version and, when it changed, archive the previous outputs,
write the new ones and append to the change log.

Without a history file the full history is rebuilt from the records.

Examples:
  moldtrack track layout --records productionRecords.csv --cutoff 2024-01-05
  moldtrack track all --records productionRecords.parquet --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrack(cmd.Context(), cmd.OutOrStdout(), args[0], flags)
		},
	}

	cmd.Flags().StringVar(&flags.records, "records", "", "Production records file, .csv or .parquet (default: config records)")
	cmd.Flags().StringVar(&flags.cutoff, "cutoff", "", "Cutoff date YYYY-MM-DD, inclusive (default: latest record date)")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Print a JSON summary")
	return cmd
}

func runTrack(ctx context.Context, out io.Writer, name string, flags trackFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	cfg := globalConfig

	recordsPath := flags.records
	if recordsPath == "" {
		recordsPath = cfg.Records
	}
	if recordsPath == "" {
		return fmt.Errorf("no records file: pass --records or set records in the config")
	}

	loader, err := source.ForPath(appFS, recordsPath)
	if err != nil {
		return err
	}
	table, err := loader.Load(recordsPath)
	if err != nil {
		return err
	}

	cutoff, err := resolveCutoff(table, flags.cutoff)
	if err != nil {
		return err
	}

	names := []string{name}
	if name == "all" {
		names = trackerNames
	}

	var outputs []TrackOutput
	for _, n := range names {
		kind, paths, err := resolveTracker(cfg, n)
		if err != nil {
			return err
		}
		var o TrackOutput
		switch kind {
		case snapshot.KindLayout:
			o, err = execute(ctx, tracker.NewLayoutTracker(appFS, paths, trackerOptions(cfg)), kind, table, cutoff)
		case snapshot.KindPairing:
			o, err = execute(ctx, tracker.NewPairingTracker(appFS, paths, trackerOptions(cfg)), kind, table, cutoff)
		}
		if err != nil {
			return fmt.Errorf("%s tracker: %w", kind, err)
		}
		outputs = append(outputs, o)
	}

	if flags.jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if len(outputs) == 1 {
			return enc.Encode(outputs[0])
		}
		return enc.Encode(outputs)
	}
	for _, o := range outputs {
		printTrackOutput(out, o)
	}
	return nil
}

func execute[S snapshot.Snapshot](ctx context.Context, tr *tracker.Tracker[S], kind snapshot.Kind, table *record.Table, cutoff time.Time) (TrackOutput, error) {
	res, err := tr.Run(ctx, table, cutoff)
	if err != nil {
		return TrackOutput{}, err
	}
	det := res.Detection
	return TrackOutput{
		Tracker:     string(kind),
		RunID:       res.RunID,
		Changed:     res.Changed,
		Reason:      string(res.Reason),
		Key:         det.Key,
		PreviousKey: det.PreviousKey,
		Added:       nonNil(det.Added.Sorted()),
		Removed:     nonNil(det.Removed.Sorted()),
		Entries:     nonNil(res.Entries),
		Written:     nonNil(res.Written),
	}, nil
}

func resolveCutoff(table *record.Table, flag string) (time.Time, error) {
	if flag != "" {
		return record.ParseDate(flag)
	}
	if d, ok := table.MaxDate(); ok {
		return d, nil
	}
	app.GetLogger().Warn("records table is empty, using today as cutoff")
	return record.Truncate(time.Now()), nil
}

func printTrackOutput(w io.Writer, o TrackOutput) {
	if !o.Changed {
		fmt.Fprintf(w, "= %s: no change at %s (%s)\n", o.Tracker, o.Key, o.Reason)
		return
	}
	fmt.Fprintf(w, "✓ %s: saved version %s (%s)\n", o.Tracker, o.Key, o.Reason)
	for _, e := range o.Entries {
		fmt.Fprintf(w, "  ⤷ %s\n", e)
	}
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
