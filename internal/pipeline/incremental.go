package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/theirongolddev/copilotpulse/internal/logger"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/source"
	"github.com/theirongolddev/copilotpulse/internal/store"
)

// LoadWithCache behaves like Load but reuses records cached for files
// whose mtime and size are unchanged, and caches freshly parsed files.
// Cache write failures are logged and otherwise ignored.
func LoadWithCache(ctx context.Context, files []source.DiscoveredFile, cache *store.Cache, opts LoadOptions) (*LoadResult, error) {
	log := logger.OrNop(opts.Logger)

	tracked, err := cache.GetTrackedFiles()
	if err != nil {
		return nil, fmt.Errorf("reading cache: %w", err)
	}

	results := fanOut(ctx, files, opts, func(df source.DiscoveredFile) FileResult {
		mtime, size, ok := statFile(df)
		if ok {
			if fi, hit := tracked[filepath.Clean(df.Path)]; hit && fi.MtimeNs == mtime && fi.SizeBytes == size {
				raws, err := cache.LoadRecords(filepath.Clean(df.Path))
				if err == nil {
					return FileResult{
						File:        df,
						Records:     model.DecodeRecords(raws),
						Format:      source.ParseFormat(fi.Format),
						ParseErrors: fi.ParseErrors,
						Cached:      true,
					}
				}
				log.Warn("cache read failed, reparsing", "file", df.Path, "error", err)
			}
		}
		return parseOne(df, log)
	})

	// SQLite takes one writer at a time, so saves run after the join.
	for _, fr := range results {
		if fr.Err != nil || fr.Cached {
			continue
		}
		mtime, size, ok := statFile(fr.File)
		if !ok {
			continue
		}
		err := cache.SaveFile(store.CachedFile{
			Path:        filepath.Clean(fr.File.Path),
			MtimeNs:     mtime,
			SizeBytes:   size,
			Format:      fr.Format.String(),
			ParseErrors: fr.ParseErrors,
			Records:     rawRecords(fr.Records),
		})
		if err != nil {
			log.Warn("caching parsed file failed", "file", fr.File.Path, "error", err)
		}
	}

	evictMissing(cache, tracked, log)

	return collect(files, results, log), nil
}

// evictMissing forgets tracked files that are gone from disk. Files that
// still exist stay cached even when this load did not ask for them.
func evictMissing(cache *store.Cache, tracked map[string]store.FileInfo, log *logger.Logger) {
	for path := range tracked {
		if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err := cache.DeleteFile(path); err != nil {
			log.Warn("evicting cached file failed", "file", path, "error", err)
			continue
		}
		log.Debug("evicted cached file", "file", path)
	}
}

func statFile(df source.DiscoveredFile) (mtimeNs, size int64, ok bool) {
	info, err := os.Stat(df.Path)
	if err != nil {
		return 0, 0, false
	}
	return info.ModTime().UnixNano(), info.Size(), true
}

func rawRecords(recs []model.Record) []json.RawMessage {
	out := make([]json.RawMessage, len(recs))
	for i, r := range recs {
		out[i] = r.Raw
	}
	return out
}

// CacheDir returns the platform-appropriate cache directory.
func CacheDir() string {
	if xdg := os.Getenv("XDG_CACHE_HOME"); xdg != "" {
		return filepath.Join(xdg, "copilotpulse")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".cache", "copilotpulse")
}

// CachePath returns the full path to the cache database.
func CachePath() string {
	return filepath.Join(CacheDir(), "records.db")
}
