package pipeline

import (
	"fmt"
	"testing"

	"github.com/theirongolddev/copilotpulse/internal/model"
)

// syntheticSources builds n sources of users x days records with a mix
// of feature and language breakdowns.
func syntheticSources(n, users, days int) [][]model.Record {
	sources := make([][]model.Record, n)
	for s := range sources {
		for u := 0; u < users; u++ {
			for d := 0; d < days; d++ {
				sources[s] = append(sources[s], model.Record{
					Day:             fmt.Sprintf("2025-%02d-%02d", d/28+1, d%28+1),
					UserLogin:       fmt.Sprintf("user%03d", u),
					CodeGenerations: int64(u*d%37 + s),
					CodeAcceptances: int64(u * d % 11),
					UsedChat:        u%3 == 0,
					UsedAgent:       u%5 == 0,
					Languages: []model.LanguageTotals{
						{Language: "go", Generations: int64(d), Acceptances: int64(d / 2)},
						{Language: "typescript", Generations: int64(u), Acceptances: int64(u / 3)},
					},
					Features: []model.FeatureTotals{
						{Feature: "code_completion", Generations: int64(d + u)},
						{Feature: "chat_panel_agent_mode", Generations: int64(u % 7)},
					},
				})
			}
		}
	}
	return sources
}

func BenchmarkMerge(b *testing.B) {
	sources := syntheticSources(3, 200, 28)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		ds := Merge(sources...)
		_ = ds
	}
}

func BenchmarkAggregateAll(b *testing.B) {
	ds := Merge(syntheticSources(1, 200, 28)...)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Summarize(ds)
		_ = AggregateDays(ds)
		_ = AggregateUsers(ds, DefaultTopUsers)
		_ = TopLanguagesByRate(ds, MinLanguageGenerations, DefaultTopLanguages)
		_ = AggregateFeatures(ds)
		_ = AggregateFeaturesByUser(ds, DefaultFeatureUsers)
		_ = AggregateAdoption(ds)
		_ = AggregateHeatmap(ds, DefaultHeatmapUsers)
		_ = DetailRows(ds, model.DetailQuery{Sort: model.SortActivity})
	}
}
