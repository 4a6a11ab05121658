package pipeline

import (
	"sort"

	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/orderedmap"
)

// Merge combines record sequences into one Dataset.
//
// Sources are consumed in the order given and records within a source in
// file order. A record whose identity key was already seen replaces the
// earlier one, so later sources (and later lines of the same file) win.
// The result is sorted ascending by Record.MergeDay ("date", else "day");
// records sharing a day keep the order in which their keys were first seen.
func Merge(sources ...[]model.Record) model.Dataset {
	byKey := orderedmap.New[string, model.Record]()
	for _, src := range sources {
		for _, r := range src {
			byKey.Set(r.Key(), r)
		}
	}

	records := byKey.Values()
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].MergeDay() < records[j].MergeDay()
	})
	return model.NewDataset(records)
}

// Stats describes a dataset: record count, distinct days and users, and
// the covered date range.
func Stats(ds model.Dataset) model.MergeStats {
	days := make(map[string]struct{})
	users := make(map[string]struct{})
	for _, r := range ds.All() {
		if day := r.MergeDay(); day != "" {
			days[day] = struct{}{}
		}
		if r.UserLogin != "" {
			users[r.UserLogin] = struct{}{}
		}
	}
	return model.MergeStats{
		TotalRecords: ds.Len(),
		UniqueDates:  len(days),
		UniqueUsers:  len(users),
		DateRange:    DateRange(ds),
	}
}

// DateRange returns the earliest and latest day in ds, or nil when no
// record carries a day.
func DateRange(ds model.Dataset) *model.DateRange {
	var dr *model.DateRange
	for _, r := range ds.All() {
		day := r.MergeDay()
		if day == "" {
			continue
		}
		if dr == nil {
			dr = &model.DateRange{Start: day, End: day}
			continue
		}
		if day < dr.Start {
			dr.Start = day
		}
		if day > dr.End {
			dr.End = day
		}
	}
	return dr
}
