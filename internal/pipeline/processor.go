// Package pipeline wires uplink lines from a source through decode and into
// the persistence sink.
//
// The pipeline is strictly sequential: one line is read, decoded, logged,
// and written before the next is read. The store connection, the prepared
// insert, and the payload buffer are therefore never touched concurrently.
package pipeline

import (
	"context"
	"log/slog"

	"ttnrec/internal/logging"
	"ttnrec/internal/uplink"
)

// Source yields raw uplink lines. Next returns io.EOF when the input ends;
// sources that can block indefinitely must honor ctx cancellation.
type Source interface {
	Next(ctx context.Context) ([]byte, error)
}

// Sink consumes decoded uplink messages, one independent write per call.
// Satisfied by *sqlite.Store.
type Sink interface {
	Insert(msg *uplink.UplinkMessage) error
}

// Processor turns one raw line into one persisted record.
type Processor struct {
	sink   Sink
	logger *slog.Logger
}

func NewProcessor(sink Sink, logger *slog.Logger) *Processor {
	return &Processor{
		sink:   sink,
		logger: logging.Default(logger).With("component", "processor"),
	}
}

// Process decodes line, logs a one-line summary, and forwards the record to
// the sink. A decode failure produces neither the summary line nor a write.
// The summary is logged before the write attempt; that ordering is part of
// the contract.
func (p *Processor) Process(line []byte) error {
	msg, err := uplink.Decode(line)
	if err != nil {
		return &Error{Kind: KindFormat, Err: err}
	}

	p.logger.Info("received uplink message",
		"app_id", msg.AppID,
		"dev_id", msg.DevID,
		"time", msg.Metadata.Time,
		"payload_bytes", msg.Payload.Len(),
	)

	if err := p.sink.Insert(msg); err != nil {
		return &Error{Kind: KindStore, Err: err}
	}
	return nil
}
