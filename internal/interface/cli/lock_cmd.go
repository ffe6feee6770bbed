package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/YoshitsuguKoike/moldtrack/internal/infra/fs"
)

func newLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lock",
		Short: "Inspect or clear a tracker's run lock",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "show <layout|pairing>",
		Short: "Show who holds the run lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, paths, err := resolveTracker(globalConfig, args[0])
			if err != nil {
				return err
			}
			info, err := fs.NewRunLock(appFS, paths.Lock, globalConfig.Lock.TTL).Read()
			out := cmd.OutOrStdout()
			if errors.Is(err, os.ErrNotExist) {
				fmt.Fprintf(out, "%s: not locked\n", paths.Lock)
				return nil
			}
			if err != nil {
				return err
			}
			state := "held"
			if info.Expired(time.Now()) {
				state = "expired"
			}
			fmt.Fprintf(out, "%s: %s by run %s (pid %d on %s), acquired %s, expires %s\n",
				paths.Lock, state, info.RunID, info.PID, info.Hostname, info.AcquiredAt, info.ExpiresAt)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "clear <layout|pairing>",
		Short: "Remove a leftover run lock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, paths, err := resolveTracker(globalConfig, args[0])
			if err != nil {
				return err
			}
			if err := fs.NewRunLock(appFS, paths.Lock, globalConfig.Lock.TTL).Clear(); err != nil {
				return err
			}
			GetLogger().Warn("cleared run lock %s", paths.Lock)
			fmt.Fprintf(cmd.OutOrStdout(), "%s: cleared\n", paths.Lock)
			return nil
		},
	})
	return cmd
}
