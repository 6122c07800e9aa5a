// Package internal holds the process-wide setup shared by all commands.
package internal

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/heisthecat31/assetpatch/internal/config"
)

// levelOff disables logging even when the log key is set.
const levelOff = "off"

// InitLogging installs the default slog logger. Records go to stderr as text
// when the log key is set and the level is not "off"; otherwise they are dropped.
// Unknown levels fall back to info.
func InitLogging() {
	slog.SetDefault(slog.New(newHandler(os.Stderr)))
}

func newHandler(w io.Writer) slog.Handler {
	name := viper.GetString(config.KeyLogLevel)
	if !viper.GetBool(config.KeyLog) || strings.EqualFold(name, levelOff) {
		return discardHandler{}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(name)); err != nil {
		level = slog.LevelInfo
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
}

// discardHandler drops every record without formatting it.
type discardHandler struct{}

func (discardHandler) Enabled(context.Context, slog.Level) bool { return false }
func (discardHandler) Handle(context.Context, slog.Record) error { return nil }
func (h discardHandler) WithAttrs([]slog.Attr) slog.Handler { return h }
func (h discardHandler) WithGroup(string) slog.Handler { return h }
