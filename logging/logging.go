package logging

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/shipq/semsql/nanoid"
)

// Log formats accepted by New.
const (
	FormatJSON   = "json"
	FormatPretty = "pretty"
)

// PassIDKey is the attribute that ties together the log lines of one compile pass.
const PassIDKey = "pass_id"

// PrettyJSONHandler is a custom handler that pretty prints JSON in development
type PrettyJSONHandler struct {
	*slog.JSONHandler
	writer io.Writer
	attrs  []slog.Attr
}

func (h *PrettyJSONHandler) Handle(ctx context.Context, r slog.Record) error {
	// Convert the record to a map
	attrs := make(map[string]interface{})
	for _, a := range h.attrs {
		attrs[a.Key] = a.Value.Any()
	}
	r.Attrs(func(a slog.Attr) bool {
		attrs[a.Key] = a.Value.Any()
		return true
	})

	// Add time and level
	attrs["time"] = r.Time.Format(time.RFC3339)
	attrs["level"] = r.Level.String()
	attrs["msg"] = r.Message

	// Marshal with indentation
	prettyJSON, err := json.MarshalIndent(attrs, "", "  ")
	if err != nil {
		return err
	}

	// Write to the handler's writer with newline
	_, err = h.writer.Write(append(prettyJSON, '\n'))
	return err
}

// WithAttrs keeps attributes added through slog.Logger.With in pretty output.
func (h *PrettyJSONHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &PrettyJSONHandler{
		JSONHandler: h.JSONHandler,
		writer:      h.writer,
		attrs:       append(slices.Clip(h.attrs), attrs...),
	}
}

// NewPrettyJSONHandler creates a pretty JSON handler writing to w.
func NewPrettyJSONHandler(w io.Writer, opts *slog.HandlerOptions) *PrettyJSONHandler {
	return &PrettyJSONHandler{
		JSONHandler: slog.NewJSONHandler(w, opts),
		writer:      w,
	}
}

var ProdLogger = slog.New(slog.NewJSONHandler(os.Stderr, nil))

var DevLogger = slog.New(NewPrettyJSONHandler(os.Stderr, nil))

// New returns a logger for format ("json" or "pretty") writing to w.
func New(format string, w io.Writer, level slog.Level) (*slog.Logger, error) {
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(format) {
	case "", FormatJSON:
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	case FormatPretty:
		return slog.New(NewPrettyJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("unknown log format %q: expected %s or %s", format, FormatJSON, FormatPretty)
	}
}

// ForCompile tags logger with a fresh pass id and the active dialect.
// A nil logger yields one that discards everything.
func ForCompile(logger *slog.Logger, dialect string) *slog.Logger {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return logger.With(
		PassIDKey, nanoid.MustNewSize(nanoid.PassIDSize),
		"dialect", dialect,
	)
}
