package acquire

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nodo1014/indexer/internal/config"
	"github.com/nodo1014/indexer/internal/language"
	"github.com/nodo1014/indexer/internal/logging"
	"github.com/nodo1014/indexer/internal/workerapi"
)

// ErrNoSubtitleFound means every language in the acquisition order was tried
// and none produced an acceptable subtitle.
var ErrNoSubtitleFound = errors.New("no subtitle found in any candidate language")

// ErrEmptySelection rejects a batch with no files.
var ErrEmptySelection = errors.New("no files selected")

// Searcher is the worker search surface the pipeline consumes.
// *workerapi.Client satisfies it.
type Searcher interface {
	MultilingualSearch(ctx context.Context, req workerapi.MultilingualSearchRequest) (*workerapi.MultilingualSearchResponse, error)
	DownloadSubtitle(ctx context.Context, req workerapi.DownloadSubtitleRequest) (*workerapi.DownloadSubtitleResponse, error)
}

// Attempt records the outcome of one language try.
type Attempt struct {
	Language   string
	Succeeded  bool
	Similarity float64
	Err        error
}

// Result is a successful acquisition, or the full attempt trail when
// returned alongside ErrNoSubtitleFound.
type Result struct {
	MediaPath    string
	Language     string
	SubtitleText string
	Similarity   float64
	SyncInfo     *workerapi.SyncInfo
	// NeedsAdjustment is set when the worker's measured offset exceeds the
	// configured threshold; the subtitle is usable but should be resynced.
	NeedsAdjustment bool
	Attempts        []Attempt
}

// Pipeline runs the language-fallback subtitle acquisition sequence.
type Pipeline struct {
	searcher    Searcher
	fallback    []string
	useFallback bool
	minSim      float64
	thresholdMs int
	logger      *slog.Logger
}

// New builds a pipeline from the loaded configuration.
func New(searcher Searcher, cfg *config.Config, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		searcher:    searcher,
		fallback:    language.NormalizeList(cfg.Subtitles.FallbackLanguages),
		useFallback: cfg.Subtitles.MultilingualFallback,
		minSim:      cfg.Subtitles.MinSimilarity,
		thresholdMs: cfg.Subtitles.SyncOffsetThresholdMs,
		logger:      logging.WithComponent(logger, "acquire"),
	}
}

// Order returns the languages the pipeline would try for a primary language,
// in try order.
func (p *Pipeline) Order(primary string) []string {
	if !p.useFallback {
		if code := language.ToISO2(primary); code != "" {
			return []string{code}
		}
		return []string{primary}
	}
	return language.Promote(primary, p.fallback)
}

// Acquire tries each candidate language in order and stops at the first
// acceptable subtitle. When no language succeeds the returned Result still
// carries the attempt trail and the error is ErrNoSubtitleFound.
func (p *Pipeline) Acquire(ctx context.Context, mediaPath, primary string) (*Result, error) {
	order := p.Order(primary)
	result := &Result{MediaPath: mediaPath}

	for _, lang := range order {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		resp, err := p.searcher.MultilingualSearch(ctx, workerapi.MultilingualSearchRequest{
			MediaPath:     mediaPath,
			Languages:     []string{lang},
			MinSimilarity: p.minSim,
		})
		if err != nil {
			p.logger.Warn("subtitle search failed",
				slog.String("media", mediaPath),
				slog.String("language", lang),
				logging.Error(err))
			result.Attempts = append(result.Attempts, Attempt{Language: lang, Err: err})
			continue
		}
		if !resp.Success || resp.Similarity < p.minSim {
			attempt := Attempt{Language: lang, Similarity: resp.Similarity}
			if resp.Error != "" {
				attempt.Err = errors.New(resp.Error)
			}
			result.Attempts = append(result.Attempts, attempt)
			continue
		}

		result.Attempts = append(result.Attempts, Attempt{
			Language:   lang,
			Succeeded:  true,
			Similarity: resp.Similarity,
		})
		result.Language = lang
		if resp.Language != "" {
			result.Language = resp.Language
		}
		result.SubtitleText = resp.SubtitleText
		result.Similarity = resp.Similarity
		result.SyncInfo = resp.SyncInfo
		result.NeedsAdjustment = p.needsAdjustment(resp.SyncInfo)
		p.logger.Info("subtitle acquired",
			slog.String("media", mediaPath),
			slog.String("language", result.Language),
			slog.Float64("similarity", resp.Similarity),
			slog.Bool("needs_adjustment", result.NeedsAdjustment))
		return result, nil
	}

	return result, fmt.Errorf("%s: %w", mediaPath, ErrNoSubtitleFound)
}

// Fetch downloads a subtitle for one file in one explicit language, without
// fallback.
func (p *Pipeline) Fetch(ctx context.Context, mediaPath, lang string) (*Result, error) {
	code := language.ToISO2(lang)
	if code == "" {
		code = lang
	}
	resp, err := p.searcher.DownloadSubtitle(ctx, workerapi.DownloadSubtitleRequest{
		Filename: mediaPath,
		Language: code,
	})
	if err != nil {
		return nil, err
	}
	if !resp.Success {
		if resp.Error != "" {
			return nil, fmt.Errorf("%s: %w: %s", mediaPath, ErrNoSubtitleFound, resp.Error)
		}
		return nil, fmt.Errorf("%s: %w", mediaPath, ErrNoSubtitleFound)
	}
	return &Result{
		MediaPath:    mediaPath,
		Language:     code,
		SubtitleText: resp.SubtitleText,
		Attempts:     []Attempt{{Language: code, Succeeded: true}},
	}, nil
}

// needsAdjustment compares the worker's measured average offset, reported in
// seconds, against the millisecond threshold.
func (p *Pipeline) needsAdjustment(info *workerapi.SyncInfo) bool {
	if info == nil || p.thresholdMs <= 0 {
		return false
	}
	return math.Abs(info.AvgOffset)*1000 > float64(p.thresholdMs)
}
