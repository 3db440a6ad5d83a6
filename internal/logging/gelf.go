package logging

import (
	"fmt"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// NewGelfHandler creates a slog handler that ships records to a Graylog
// server over GELF/UDP. Each record becomes one JSON-encoded GELF message;
// the writer chunks and compresses as needed.
func NewGelfHandler(address string, level slog.Level) (slog.Handler, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, fmt.Errorf("connecting GELF writer to %s: %w", address, err)
	}
	return slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level}), nil
}
