package pipeline

import (
	"sort"

	"github.com/samber/lo"

	"github.com/theirongolddev/copilotpulse/internal/model"
)

// Users returns the distinct non-empty user logins in ds, sorted.
func Users(ds model.Dataset) []string {
	logins := lo.Map(ds.Records(), func(r model.Record, _ int) string { return r.UserLogin })
	users := lo.Uniq(lo.Compact(logins))
	sort.Strings(users)
	return users
}

// FilterUsers keeps records belonging to users. An empty selection means
// every user and returns ds unchanged.
func FilterUsers(ds model.Dataset, users []string) model.Dataset {
	if len(users) == 0 {
		return ds
	}
	keep := lo.SliceToMap(users, func(u string) (string, struct{}) { return u, struct{}{} })
	return ds.Filter(func(r model.Record) bool {
		_, ok := keep[r.UserLogin]
		return ok
	})
}

// FilterDays keeps records whose day lies within [from, to]. Bounds are
// inclusive ISO dates compared as strings; an empty bound is open.
func FilterDays(ds model.Dataset, from, to string) model.Dataset {
	if from == "" && to == "" {
		return ds
	}
	return ds.Filter(func(r model.Record) bool {
		return inRange(r.Day, from, to)
	})
}

func inRange(day, from, to string) bool {
	if from != "" && day < from {
		return false
	}
	if to != "" && day > to {
		return false
	}
	return true
}
