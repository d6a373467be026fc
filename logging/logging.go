// Package logging installs the default slog logger.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
)

const (
	FormatText = "text"
	FormatJSON = "json"
)

// Setup makes a logger writing to w the default one.
// level is one of debug, info, warn or error; format is text or json.
func Setup(w io.Writer, level, format string) error {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return fmt.Errorf(`invalid log level %q: %w`, level, err)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	var handler slog.Handler
	switch strings.ToLower(format) {
	case FormatText:
		handler = slog.NewTextHandler(w, opts)
	case FormatJSON:
		handler = slog.NewJSONHandler(w, opts)
	default:
		return fmt.Errorf(`invalid log format %q, expected %v or %v`, format, FormatText, FormatJSON)
	}
	slog.SetDefault(slog.New(handler))
	return nil
}
