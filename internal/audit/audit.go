// Package audit forwards one human-readable description per committed
// ledger entry to the audit log collaborator. Storage and format of the
// log are owned externally; this core only emits.
package audit

import (
	"context"
	"log/slog"
)

type Sink interface {
	Record(ctx context.Context, userID, description string)
}

// SlogSink is the default sink: it writes audit lines to the service log
// until a real external sink is wired in.
type SlogSink struct {
	log *slog.Logger
}

func NewSlogSink(log *slog.Logger) *SlogSink {
	return &SlogSink{log: log}
}

func (s *SlogSink) Record(ctx context.Context, userID, description string) {
	s.log.LogAttrs(ctx,
		slog.LevelInfo,
		"audit",
		slog.String("user_id", userID),
		slog.String("description", description),
	)
}
