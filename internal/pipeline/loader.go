package pipeline

import (
	"context"
	"runtime"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/theirongolddev/copilotpulse/internal/logger"
	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/source"
)

// FileResult is the outcome of loading one input file.
type FileResult struct {
	File        source.DiscoveredFile
	Records     []model.Record
	Format      source.Format
	ParseErrors int
	Err         error
	Cached      bool
}

// LoadResult holds the output of the full data loading pipeline.
type LoadResult struct {
	Dataset     model.Dataset
	Files       []FileResult // in the order the files were supplied
	TotalFiles  int
	ParsedFiles int
	EmptyFiles  int // parsed but yielded no records
	ParseErrors int
	FileErrors  int
	CacheHits   int
	Reparsed    int
}

// Sources returns each file's records in supplied order, ready for Merge.
func (r *LoadResult) Sources() [][]model.Record {
	out := make([][]model.Record, len(r.Files))
	for i, f := range r.Files {
		out[i] = f.Records
	}
	return out
}

// ProgressFunc is called during loading to report progress.
// current is the number of files processed so far, total is the total count.
type ProgressFunc func(current, total int)

// LoadOptions tunes Load and LoadWithCache.
type LoadOptions struct {
	Logger   *logger.Logger
	Progress ProgressFunc
	Workers  int // 0 means GOMAXPROCS
}

// Load reads and parses every file concurrently, then merges them in the
// order supplied. A file that cannot be read contributes no records; the
// merge runs once, after every file has finished either way.
func Load(ctx context.Context, files []source.DiscoveredFile, opts LoadOptions) *LoadResult {
	log := logger.OrNop(opts.Logger)
	results := fanOut(ctx, files, opts, func(df source.DiscoveredFile) FileResult {
		return parseOne(df, log)
	})
	return collect(files, results, log)
}

func parseOne(df source.DiscoveredFile, log *logger.Logger) FileResult {
	pr := source.ParseFile(df, log)
	return FileResult{
		File:        df,
		Records:     model.DecodeRecords(pr.Records),
		Format:      pr.Format,
		ParseErrors: pr.ParseErrors,
		Err:         pr.Err,
	}
}

// fanOut runs task for every file on a bounded errgroup and returns the
// results indexed like files. Tasks never fail the group; a cancelled
// context marks the files that had not started yet as failed.
func fanOut(ctx context.Context, files []source.DiscoveredFile, opts LoadOptions, task func(source.DiscoveredFile) FileResult) []FileResult {
	results := make([]FileResult, len(files))
	if len(files) == 0 {
		return results
	}

	numWorkers := opts.Workers
	if numWorkers < 1 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(numWorkers)
	var processed atomic.Int64

	for i, df := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				results[i] = FileResult{File: df, Err: err}
			} else {
				results[i] = task(df)
			}
			n := processed.Add(1)
			if opts.Progress != nil {
				opts.Progress(int(n), len(files))
			}
			return nil
		})
	}

	_ = g.Wait() // tasks never return errors
	return results
}

func collect(files []source.DiscoveredFile, results []FileResult, log *logger.Logger) *LoadResult {
	result := &LoadResult{TotalFiles: len(files), Files: results}

	for _, fr := range results {
		if fr.Err != nil {
			result.FileErrors++
			log.Warn("skipping unreadable file", "file", fr.File.Path, "error", fr.Err)
			continue
		}
		result.ParsedFiles++
		result.ParseErrors += fr.ParseErrors
		if len(fr.Records) == 0 {
			result.EmptyFiles++
		}
		if fr.Cached {
			result.CacheHits++
		} else {
			result.Reparsed++
		}
	}

	result.Dataset = Merge(result.Sources()...)
	return result
}
