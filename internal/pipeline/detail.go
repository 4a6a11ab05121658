package pipeline

import (
	"sort"

	"github.com/theirongolddev/copilotpulse/internal/model"
)

// Top-level feature labels shown on detail rows.
const (
	TopFeatureCompletions = "Code Completions"
	TopFeatureChat        = "IDE Chat"
	TopFeatureAgent       = "Agent"
)

// DetailRows flattens ds into one row per user and day, filtered by the
// query's inclusive date bounds and ordered by its sort mode. Records
// missing a user or day are skipped.
//
// When the query sets no date bound and no Limit, at most
// DefaultDetailLimit rows are returned.
func DetailRows(ds model.Dataset, q model.DetailQuery) []model.DetailRow {
	var rows []model.DetailRow
	for _, r := range ds.All() {
		if r.UserLogin == "" || r.Day == "" {
			continue
		}
		if !inRange(r.Day, q.From, q.To) {
			continue
		}
		rows = append(rows, detailRow(r))
	}

	sortDetailRows(rows, q.Sort)

	limit := q.Limit
	if limit == 0 && !q.Filtered() {
		limit = DefaultDetailLimit
	}
	return truncate(rows, limit)
}

func detailRow(r model.Record) model.DetailRow {
	row := model.DetailRow{
		User:         r.UserLogin,
		Day:          r.Day,
		Features:     []model.DetailFeature{},
		TopFeatures:  []string{},
		Generations:  r.CodeGenerations,
		Acceptances:  r.CodeAcceptances,
		Interactions: r.Interactions,
		UsedChat:     r.UsedChat,
		UsedAgent:    r.UsedAgent,
	}

	for _, f := range r.Features {
		if f.Generations <= 0 && f.Acceptances <= 0 {
			continue
		}
		row.Features = append(row.Features, model.DetailFeature{
			Name:           featureLabel(orDefault(f.Feature, "unknown")),
			Generations:    f.Generations,
			Acceptances:    f.Acceptances,
			AcceptanceRate: model.AcceptanceRate(f.Acceptances, f.Generations),
		})
	}

	if r.CodeGenerations > 0 {
		row.TopFeatures = append(row.TopFeatures, TopFeatureCompletions)
	}
	if r.UsedChat {
		row.TopFeatures = append(row.TopFeatures, TopFeatureChat)
	}
	if r.UsedAgent {
		row.TopFeatures = append(row.TopFeatures, TopFeatureAgent)
	}
	return row
}

func sortDetailRows(rows []model.DetailRow, mode model.DetailSort) {
	switch mode {
	case model.SortUser:
		sort.SliceStable(rows, func(i, j int) bool {
			if rows[i].User != rows[j].User {
				return rows[i].User < rows[j].User
			}
			return rows[i].Day > rows[j].Day
		})
	case model.SortActivity:
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Generations > rows[j].Generations
		})
	default:
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].Day > rows[j].Day
		})
	}
}
