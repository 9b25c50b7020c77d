package feed

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Options tunes the scroll loop.
type Options struct {
	SettleBase   time.Duration
	SettleJitter time.Duration
	// MaxStalls is the number of consecutive unchanged heights that ends a scan.
	MaxStalls   int
	EndSentinel string
}

// DefaultOptions returns the settle timing used against the live results panel.
func DefaultOptions() Options {
	return Options{
		SettleBase:   2000 * time.Millisecond,
		SettleJitter: 1000 * time.Millisecond,
		MaxStalls:    5,
		EndSentinel:  EndSentinel,
	}
}

// Scanner scrolls a Source until its height stops changing.
type Scanner struct {
	source Source
	opts   Options
	logger *slog.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(limit time.Duration) time.Duration
}

// NewScanner creates a scanner. Unset options other than SettleJitter fall back to DefaultOptions.
func NewScanner(source Source, opts Options, logger *slog.Logger) *Scanner {
	def := DefaultOptions()
	if opts.SettleBase <= 0 {
		opts.SettleBase = def.SettleBase
	}
	if opts.SettleJitter < 0 {
		opts.SettleJitter = 0
	}
	if opts.MaxStalls <= 0 {
		opts.MaxStalls = def.MaxStalls
	}
	if opts.EndSentinel == "" {
		opts.EndSentinel = def.EndSentinel
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{
		source: source,
		opts:   opts,
		logger: logger.With("component", "feed"),
		sleep:  sleepContext,
		jitter: randomJitter,
	}
}

// Source returns the scanned source.
func (s *Scanner) Source() Source {
	return s.source
}

// ScanToStable scrolls until the feed height is unchanged MaxStalls times in a row
// or the end-of-list sentinel is visible. A missing feed is not an error.
func (s *Scanner) ScanToStable(ctx context.Context, onProgress ProgressCallback) error {
	exists, err := s.source.Exists(ctx)
	if err != nil {
		return &ScanError{Op: "locate feed", Cause: err}
	}
	if !exists {
		s.logger.Info("no results feed found, skipping scroll")
		return nil
	}

	emit(onProgress, ProgressEvent{Phase: PhaseStarting})

	var previousHeight int64
	stalls := 0
	for stalls < s.opts.MaxStalls {
		if err := s.source.ScrollToEnd(ctx); err != nil {
			return &ScanError{Op: "scroll", Cause: err}
		}

		count, err := s.source.ItemCount(ctx)
		if err != nil {
			return &ScanError{Op: "count items", Cause: err}
		}
		emit(onProgress, ProgressEvent{ItemsSoFar: count, Phase: PhaseScrolling})

		if err := s.sleep(ctx, s.settle()); err != nil {
			return err
		}

		height, err := s.source.ScrollHeight(ctx)
		if err != nil {
			return &ScanError{Op: "measure height", Cause: err}
		}

		if height != previousHeight {
			stalls = 0
			previousHeight = height
			continue
		}

		stalls++
		s.logger.Debug("feed height unchanged", "height", height, "stalls", stalls)

		done, err := s.source.ContainsText(ctx, s.opts.EndSentinel)
		if err != nil {
			return &ScanError{Op: "check end of list", Cause: err}
		}
		if done {
			s.logger.Debug("end of list reached", "items", count)
			break
		}
	}

	count, err := s.source.ItemCount(ctx)
	if err != nil {
		return &ScanError{Op: "count items", Cause: err}
	}
	emit(onProgress, ProgressEvent{ItemsSoFar: count, Phase: PhaseExtracting})
	s.logger.Info("feed scan complete", "items", count)
	return nil
}

func (s *Scanner) settle() time.Duration {
	return s.opts.SettleBase + s.jitter(s.opts.SettleJitter)
}

func emit(cb ProgressCallback, ev ProgressEvent) {
	if cb != nil {
		cb(ev)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func randomJitter(limit time.Duration) time.Duration {
	if limit <= 0 {
		return 0
	}
	return rand.N(limit)
}
