package pipeline

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"ttnrec/internal/logging"
)

// Run pulls lines from src and feeds them to proc until the source reports
// io.EOF or ctx is cancelled. Per-line failures — a read error, a malformed
// line, a failed insert — are reported and swallowed; the stream stays
// alive. There is no error threshold: an unbounded run of bad lines is
// tolerated.
func Run(ctx context.Context, src Source, proc *Processor, logger *slog.Logger) error {
	logger = logging.Default(logger).With("component", "ingest")

	var stored, dropped uint64
	for {
		line, err := src.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				logger.Info("input stream ended", "stored", stored, "dropped", dropped)
				return nil
			}
			if ctx.Err() != nil {
				logger.Info("ingest stopping", "stored", stored, "dropped", dropped)
				return nil
			}
			dropped++
			logger.Error("error while reading message", "error", &Error{Kind: KindIO, Err: err})
			continue
		}

		if err := proc.Process(line); err != nil {
			dropped++
			logger.Error("error while processing message", "error", err)
			continue
		}
		stored++
	}
}
