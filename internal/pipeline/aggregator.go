// Package pipeline orchestrates export loading, caching, merging, and metric aggregation.
package pipeline

import (
	"math"
	"sort"

	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/orderedmap"
)

// View sizes used by the dashboards.
const (
	DefaultTopUsers        = 10
	DefaultTopLanguages    = 10
	MinLanguageGenerations = 10
	DefaultFeatureUsers    = 8
	DefaultTopModels       = 8
	DefaultHeatmapUsers    = 12
	DefaultDetailLimit     = 50
)

// Summarize computes global totals across ds.
func Summarize(ds model.Dataset) model.SummaryStats {
	var stats model.SummaryStats
	users := make(map[string]struct{})

	for _, r := range ds.All() {
		if r.UserLogin != "" {
			users[r.UserLogin] = struct{}{}
		}
		stats.Generations += r.CodeGenerations
		stats.Acceptances += r.CodeAcceptances
		stats.Interactions += r.Interactions
		stats.LOCAdded += r.LOCAdded
	}

	stats.Users = len(users)
	stats.AcceptanceRate = model.AcceptanceRate(stats.Acceptances, stats.Generations)
	return stats
}

// AggregateDays groups records by day, ascending. Records without a day
// are skipped.
func AggregateDays(ds model.Dataset) []model.DailyStats {
	type dayAcc struct {
		stats model.DailyStats
		users map[string]struct{}
	}
	byDay := orderedmap.New[string, *dayAcc]()

	for _, r := range ds.All() {
		if r.Day == "" {
			continue
		}
		acc := byDay.GetOrInsert(r.Day, func() *dayAcc {
			return &dayAcc{stats: model.DailyStats{Day: r.Day}, users: make(map[string]struct{})}
		})
		acc.stats.Generations += r.CodeGenerations
		acc.stats.Acceptances += r.CodeAcceptances
		acc.stats.Interactions += r.Interactions
		acc.stats.LOCAdded += r.LOCAdded
		acc.stats.LOCSuggested += r.LOCSuggested
		if r.UserLogin != "" {
			acc.users[r.UserLogin] = struct{}{}
		}
	}

	days := make([]model.DailyStats, 0, byDay.Len())
	for _, acc := range byDay.All() {
		acc.stats.ActiveUsers = len(acc.users)
		acc.stats.AcceptanceRate = model.AcceptanceRate(acc.stats.Acceptances, acc.stats.Generations)
		days = append(days, acc.stats)
	}
	sort.SliceStable(days, func(i, j int) bool {
		return days[i].Day < days[j].Day
	})
	return days
}

// ActiveUserTrend compares the last day's active users with the average
// across days. Days must be ascending, as returned by AggregateDays.
func ActiveUserTrend(days []model.DailyStats) model.UserTrend {
	if len(days) == 0 {
		return model.UserTrend{}
	}
	var total int
	for _, d := range days {
		total += d.ActiveUsers
	}
	avg := math.Round(float64(total)/float64(len(days))*10) / 10
	latest := days[len(days)-1].ActiveUsers

	trend := model.UserTrend{Average: avg, Latest: latest}
	switch {
	case float64(latest) > avg:
		trend.Direction = 1
	case float64(latest) < avg:
		trend.Direction = -1
	}
	return trend
}

// AggregateUsers ranks users by generations, descending, keeping the top
// limit (all when limit <= 0). Records without a user are skipped.
func AggregateUsers(ds model.Dataset, limit int) []model.UserStats {
	type userAcc struct {
		stats model.UserStats
		days  map[string]struct{}
	}
	byUser := orderedmap.New[string, *userAcc]()

	for _, r := range ds.All() {
		if r.UserLogin == "" {
			continue
		}
		acc := byUser.GetOrInsert(r.UserLogin, func() *userAcc {
			return &userAcc{stats: model.UserStats{User: r.UserLogin}, days: make(map[string]struct{})}
		})
		acc.stats.Generations += r.CodeGenerations
		acc.stats.Acceptances += r.CodeAcceptances
		acc.days[r.Day] = struct{}{}
	}

	users := make([]model.UserStats, 0, byUser.Len())
	for _, acc := range byUser.All() {
		acc.stats.ActiveDays = len(acc.days)
		acc.stats.AcceptanceRate = model.AcceptanceRate(acc.stats.Acceptances, acc.stats.Generations)
		users = append(users, acc.stats)
	}
	sort.SliceStable(users, func(i, j int) bool {
		return users[i].Generations > users[j].Generations
	})
	return truncate(users, limit)
}

// AggregateAdoption counts distinct users of agent mode and chat.
func AggregateAdoption(ds model.Dataset) model.AdoptionStats {
	users := make(map[string]struct{})
	agent := make(map[string]struct{})
	chat := make(map[string]struct{})

	for _, r := range ds.All() {
		if r.UserLogin == "" {
			continue
		}
		users[r.UserLogin] = struct{}{}
		if r.UsedAgent {
			agent[r.UserLogin] = struct{}{}
		}
		if r.UsedChat {
			chat[r.UserLogin] = struct{}{}
		}
	}

	var both int
	for u := range agent {
		if _, ok := chat[u]; ok {
			both++
		}
	}

	st := model.AdoptionStats{
		TotalUsers: len(users),
		Agent:      len(agent),
		Chat:       len(chat),
		Both:       both,
		Adopted:    len(agent) + len(chat) - both,
	}
	st.NotAdopted = st.TotalUsers - st.Adopted
	if st.TotalUsers > 0 {
		total := float64(st.TotalUsers)
		st.AgentPercent = float64(st.Agent) / total * 100
		st.ChatPercent = float64(st.Chat) / total * 100
		st.BothPercent = float64(st.Both) / total * 100
		st.AdoptedPercent = float64(st.Adopted) / total * 100
		st.NotAdoptedPercent = float64(st.NotAdopted) / total * 100
	}
	return st
}

// AggregateHeatmap builds a user-by-day activity grid for the first
// maxUsers distinct users in dataset order (all when maxUsers <= 0).
// Columns cover every day in ds, ascending.
func AggregateHeatmap(ds model.Dataset, maxUsers int) model.Heatmap {
	userIdx := orderedmap.New[string, int]()
	dayIdx := orderedmap.New[string, int]()
	for _, r := range ds.All() {
		if r.UserLogin != "" && !userIdx.Has(r.UserLogin) && (maxUsers <= 0 || userIdx.Len() < maxUsers) {
			userIdx.Set(r.UserLogin, userIdx.Len())
		}
		if r.Day != "" && !dayIdx.Has(r.Day) {
			dayIdx.Set(r.Day, 0)
		}
	}

	days := dayIdx.Keys()
	sort.Strings(days)
	for i, d := range days {
		dayIdx.Set(d, i)
	}

	hm := model.Heatmap{
		Users: userIdx.Keys(),
		Days:  days,
		Cells: make([][]int64, userIdx.Len()),
	}
	for i := range hm.Cells {
		hm.Cells[i] = make([]int64, len(days))
	}

	for _, r := range ds.All() {
		ui, ok := userIdx.Get(r.UserLogin)
		if !ok {
			continue
		}
		di, ok := dayIdx.Get(r.Day)
		if !ok {
			continue
		}
		activity := r.CodeGenerations + r.CodeAcceptances
		hm.Cells[ui][di] = activity
		if activity > hm.Max {
			hm.Max = activity
		}
	}
	return hm
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}
