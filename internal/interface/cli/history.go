package cli

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"

	"github.com/YoshitsuguKoike/moldtrack/internal/domain/snapshot"
	"github.com/YoshitsuguKoike/moldtrack/internal/infra/persistence/file"
	historyValidator "github.com/YoshitsuguKoike/moldtrack/internal/validator/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect saved tracker history",
	}
	cmd.AddCommand(newHistoryShowCmd())
	cmd.AddCommand(newHistoryQueryCmd())
	cmd.AddCommand(newHistoryVerifyCmd())
	return cmd
}

func newHistoryShowCmd() *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "show <layout|pairing>",
		Short: "List saved versions, or print one with --key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, paths, err := resolveTracker(globalConfig, args[0])
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch kind {
			case snapshot.KindLayout:
				return showHistory[snapshot.Layout](out, paths.History, key)
			default:
				return showHistory[snapshot.Pairing](out, paths.History, key)
			}
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "Print the snapshot saved under this date")
	return cmd
}

func showHistory[S snapshot.Snapshot](out io.Writer, path, key string) error {
	h, err := file.NewHistoryStore[S](appFS).LoadStrict(path)
	if err != nil {
		return err
	}
	if key != "" {
		s, ok := h.Get(key)
		if !ok {
			return fmt.Errorf("no version saved under %s in %s", key, path)
		}
		data, err := json.MarshalIndent(s, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	if h.IsEmpty() {
		fmt.Fprintf(out, "%s: no versions saved\n", path)
		return nil
	}
	for _, k := range h.Keys() {
		s, _ := h.Get(k)
		fmt.Fprintf(out, "%s  %d entries\n", k, s.Len())
	}
	return nil
}

func newHistoryQueryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "query <layout|pairing> <path>",
		Short: "Query the history file with a GJSON path",
		Long: `Evaluate a GJSON path against the raw history file.

Examples:
  moldtrack history query layout '2024-01-05.M1'
  moldtrack history query pairing '@keys'`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, paths, err := resolveTracker(globalConfig, args[0])
			if err != nil {
				return err
			}
			data, err := afero.ReadFile(appFS, paths.History)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			if !gjson.ValidBytes(data) {
				return fmt.Errorf("history file %s is not valid JSON", paths.History)
			}
			res := gjson.GetBytes(data, args[1])
			if !res.Exists() {
				return fmt.Errorf("path %q matched nothing", args[1])
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), res.String())
			return err
		},
	}
}

func newHistoryVerifyCmd() *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "verify <layout|pairing>",
		Short: "Validate the history file against its schema",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, paths, err := resolveTracker(globalConfig, args[0])
			if err != nil {
				return err
			}
			data, err := afero.ReadFile(appFS, paths.History)
			if err != nil {
				return fmt.Errorf("read history: %w", err)
			}
			res, err := historyValidator.NewValidator(paths.History, kind).Validate(data)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == "json" {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				if err := enc.Encode(res); err != nil {
					return err
				}
			} else {
				for _, issue := range res.Issues {
					fmt.Fprintf(out, "%s: %s %s\n", issue.Type, issue.Field, issue.Message)
				}
				fmt.Fprintf(out, "%d entries, %d warnings, %d errors\n", res.Summary.Entries, res.Summary.Warn, res.Summary.Error)
			}
			if !res.OK() {
				return fmt.Errorf("history file %s failed validation", paths.History)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "text", "Output format: text, json")
	return cmd
}
