package pipeline

import (
	"context"
	"errors"

	"github.com/theirongolddev/copilotpulse/internal/logger"
	"github.com/theirongolddev/copilotpulse/internal/source"
	"github.com/theirongolddev/copilotpulse/internal/store"
)

// ErrNoInputs is returned when there is nothing to load.
var ErrNoInputs = errors.New("no input files or directories given")

// LoadPaths discovers export files under paths and loads them, through
// the parse cache at cachePath when it is non-empty. Any cache failure
// falls back to an uncached load.
func LoadPaths(ctx context.Context, paths []string, cachePath string, opts LoadOptions) (*LoadResult, error) {
	if len(paths) == 0 {
		return nil, ErrNoInputs
	}
	files, err := source.Discover(paths)
	if err != nil {
		return nil, err
	}

	log := logger.OrNop(opts.Logger)
	if cachePath != "" {
		cache, err := store.Open(cachePath)
		if err != nil {
			log.Warn("cache unavailable, doing full parse", "path", cachePath, "error", err)
		} else {
			defer func() { _ = cache.Close() }()
			res, err := LoadWithCache(ctx, files, cache, opts)
			if err == nil {
				return res, nil
			}
			log.Warn("cache error, falling back to full parse", "error", err)
		}
	}

	return Load(ctx, files, opts), nil
}
