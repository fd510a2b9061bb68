package acquire

import (
	"context"
	"log/slog"

	"github.com/nodo1014/indexer/internal/logging"
)

// FileOutcome reports one file's result within a batch.
type FileOutcome struct {
	Index     int
	Total     int
	MediaPath string
	Result    *Result
	Err       error
}

// Summary totals a finished or interrupted batch.
type Summary struct {
	SuccessCount int
	FailCount    int
	Outcomes     []FileOutcome
}

// Batch acquires subtitles for every file in order. One file failing does
// not stop the rest; cancellation between files does, returning the partial
// summary alongside the context error. The progress callback, when set,
// fires after each file.
func (p *Pipeline) Batch(ctx context.Context, files []string, primary string, progress func(FileOutcome)) (Summary, error) {
	var summary Summary
	if len(files) == 0 {
		return summary, ErrEmptySelection
	}

	for i, mediaPath := range files {
		if err := ctx.Err(); err != nil {
			p.logger.Info("batch interrupted",
				slog.Int("done", i), slog.Int("total", len(files)))
			return summary, err
		}

		result, err := p.Acquire(ctx, mediaPath, primary)
		outcome := FileOutcome{
			Index:     i,
			Total:     len(files),
			MediaPath: mediaPath,
			Result:    result,
			Err:       err,
		}
		if err != nil {
			summary.FailCount++
			p.logger.Warn("batch file failed",
				slog.String("media", mediaPath), logging.Error(err))
		} else {
			summary.SuccessCount++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
		if progress != nil {
			progress(outcome)
		}
	}
	return summary, nil
}
