package cli

import (
	"github.com/YoshitsuguKoike/moldtrack/internal/app"
	"github.com/YoshitsuguKoike/moldtrack/internal/infra/fs"
)

// InitializeLoggers sets up loggers for all layers
func InitializeLoggers(logger *Logger) {
	app.SetLogger(logger)
	fs.SetLogger(logger)
}
