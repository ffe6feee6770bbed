package cli

import (
	"fmt"
	"strings"

	"github.com/YoshitsuguKoike/moldtrack/internal/app"
	"github.com/YoshitsuguKoike/moldtrack/internal/app/config"
	"github.com/YoshitsuguKoike/moldtrack/internal/application/usecase/tracker"
	"github.com/YoshitsuguKoike/moldtrack/internal/domain/snapshot"
)

// trackerNames lists the accepted tracker arguments
var trackerNames = []string{string(snapshot.KindLayout), string(snapshot.KindPairing)}

// resolveTracker maps a tracker argument to its kind and paths.
func resolveTracker(cfg *config.Config, name string) (snapshot.Kind, app.Paths, error) {
	switch snapshot.Kind(strings.ToLower(name)) {
	case snapshot.KindLayout:
		return snapshot.KindLayout, app.ResolvePaths(cfg.OutputDir, cfg.Layout), nil
	case snapshot.KindPairing:
		return snapshot.KindPairing, app.ResolvePaths(cfg.OutputDir, cfg.Pairing), nil
	default:
		return "", app.Paths{}, fmt.Errorf("unknown tracker %q (want one of: %s)", name, strings.Join(trackerNames, ", "))
	}
}

func trackerOptions(cfg *config.Config) tracker.Options {
	return tracker.Options{
		LockTTL:     cfg.Lock.TTL,
		DisableLock: cfg.Lock.Disabled,
	}
}
