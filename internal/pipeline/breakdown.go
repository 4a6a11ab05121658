package pipeline

import (
	"sort"
	"strings"
	"unicode"

	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/orderedmap"
)

const unknownName = "Unknown"

// AggregateLanguages sums the per-language breakdowns in first-seen order.
// Languages without a name are grouped as "Unknown".
func AggregateLanguages(ds model.Dataset) []model.LanguageStats {
	byLang := orderedmap.New[string, *model.LanguageStats]()
	for _, r := range ds.All() {
		for _, l := range r.Languages {
			name := orDefault(l.Language, unknownName)
			acc := byLang.GetOrInsert(name, func() *model.LanguageStats {
				return &model.LanguageStats{Language: name}
			})
			acc.Generations += l.Generations
			acc.Acceptances += l.Acceptances
		}
	}

	langs := make([]model.LanguageStats, 0, byLang.Len())
	for _, acc := range byLang.All() {
		acc.AcceptanceRate = model.AcceptanceRate(acc.Acceptances, acc.Generations)
		langs = append(langs, *acc)
	}
	return langs
}

// TopLanguagesByUsage ranks languages with any generations by generation
// count, descending, keeping n.
func TopLanguagesByUsage(ds model.Dataset, n int) []model.LanguageStats {
	var langs []model.LanguageStats
	for _, l := range AggregateLanguages(ds) {
		if l.Generations > 0 {
			langs = append(langs, l)
		}
	}
	sort.SliceStable(langs, func(i, j int) bool {
		return langs[i].Generations > langs[j].Generations
	})
	return truncate(langs, n)
}

// TopLanguagesByRate ranks languages by acceptance rate, descending,
// keeping n. Languages with fewer than minGenerations generations are
// excluded first because their rates are too noisy to compare.
func TopLanguagesByRate(ds model.Dataset, minGenerations int64, n int) []model.LanguageStats {
	var langs []model.LanguageStats
	for _, l := range AggregateLanguages(ds) {
		if l.Generations >= minGenerations {
			langs = append(langs, l)
		}
	}
	sort.SliceStable(langs, func(i, j int) bool {
		return langs[i].AcceptanceRate > langs[j].AcceptanceRate
	})
	return truncate(langs, n)
}

// AggregateFeatures sums the per-feature breakdowns, keeping features with
// any activity, sorted by generations descending.
func AggregateFeatures(ds model.Dataset) []model.FeatureStats {
	byFeature := orderedmap.New[string, *model.FeatureStats]()
	for _, r := range ds.All() {
		for _, f := range r.Features {
			key := orDefault(f.Feature, unknownName)
			acc := byFeature.GetOrInsert(key, func() *model.FeatureStats {
				return &model.FeatureStats{Feature: key, Name: FeatureDisplayName(key)}
			})
			acc.Generations += f.Generations
			acc.Acceptances += f.Acceptances
		}
	}

	var features []model.FeatureStats
	for _, acc := range byFeature.All() {
		if acc.Generations <= 0 && acc.Acceptances <= 0 {
			continue
		}
		acc.AcceptanceRate = model.AcceptanceRate(acc.Acceptances, acc.Generations)
		features = append(features, *acc)
	}
	sort.SliceStable(features, func(i, j int) bool {
		return features[i].Generations > features[j].Generations
	})
	return features
}

// AggregateFeaturesByUser computes per-user generations for each feature
// and keeps the n users with the highest totals. Features without a name
// are grouped as "other".
func AggregateFeaturesByUser(ds model.Dataset, n int) model.FeatureMatrix {
	byUser := orderedmap.New[string, *orderedmap.Map[string, int64]]()
	for _, r := range ds.All() {
		if r.UserLogin == "" {
			continue
		}
		feats := byUser.GetOrInsert(r.UserLogin, orderedmap.New[string, int64])
		for _, f := range r.Features {
			key := orDefault(f.Feature, "other")
			cur, _ := feats.Get(key)
			feats.Set(key, cur+f.Generations)
		}
	}

	type userTotal struct {
		user  string
		feats *orderedmap.Map[string, int64]
		total int64
	}
	ranked := make([]userTotal, 0, byUser.Len())
	for user, feats := range byUser.All() {
		var total int64
		for _, v := range feats.All() {
			total += v
		}
		ranked = append(ranked, userTotal{user: user, feats: feats, total: total})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].total > ranked[j].total
	})
	ranked = truncate(ranked, n)

	featureIdx := orderedmap.New[string, int]()
	for _, u := range ranked {
		for f := range u.feats.All() {
			if !featureIdx.Has(f) {
				featureIdx.Set(f, featureIdx.Len())
			}
		}
	}

	m := model.FeatureMatrix{Features: featureIdx.Keys(), Rows: make([]model.UserFeatureRow, 0, len(ranked))}
	for _, u := range ranked {
		row := model.UserFeatureRow{User: u.user, Generations: make([]int64, featureIdx.Len()), Total: u.total}
		for f, v := range u.feats.All() {
			i, _ := featureIdx.Get(f)
			row.Generations[i] = v
		}
		m.Rows = append(m.Rows, row)
	}
	return m
}

// AggregateIDEs sums usage per IDE: generations when present, otherwise
// engaged users, otherwise 1 per entry. Every IDE with a positive total is
// returned, sorted descending.
func AggregateIDEs(ds model.Dataset) []model.ShareStats {
	byIDE := orderedmap.New[string, int64]()
	for _, r := range ds.All() {
		for _, ide := range r.IDEs {
			name := orDefault(ide.IDE, unknownName)
			cur, _ := byIDE.Get(name)
			byIDE.Set(name, cur+usageWeight(ide.Generations, ide.EngagedUsers))
		}
	}
	return shares(byIDE, 0)
}

// AggregateModels sums usage per model with the same weighting as
// AggregateIDEs and keeps the top n.
func AggregateModels(ds model.Dataset, n int) []model.ShareStats {
	byModel := orderedmap.New[string, int64]()
	for _, r := range ds.All() {
		for _, m := range r.Models {
			name := orDefault(m.Model, unknownName)
			cur, _ := byModel.Get(name)
			byModel.Set(name, cur+usageWeight(m.Generations, m.EngagedUsers))
		}
	}
	return shares(byModel, n)
}

// usageWeight picks the first positive of generations and engaged users,
// falling back to 1 so the entry still counts as seen.
func usageWeight(generations, engaged int64) int64 {
	if generations > 0 {
		return generations
	}
	if engaged > 0 {
		return engaged
	}
	return 1
}

func shares(m *orderedmap.Map[string, int64], n int) []model.ShareStats {
	var (
		out   []model.ShareStats
		total int64
	)
	for name, v := range m.All() {
		if v <= 0 {
			continue
		}
		out = append(out, model.ShareStats{Name: name, Value: v})
		total += v
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value > out[j].Value
	})
	out = truncate(out, n)
	for i := range out {
		out[i].SharePercent = float64(out[i].Value) / float64(total) * 100
	}
	return out
}

// FeatureDisplayName turns an exported feature key such as
// "code_completion" into "Code Completion".
func FeatureDisplayName(key string) string {
	s := strings.ReplaceAll(key, "_", " ")
	var b strings.Builder
	b.Grow(len(s))
	prevWord := false
	for _, r := range s {
		isWord := r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
		if isWord && !prevWord {
			r = unicode.ToUpper(r)
		}
		b.WriteRune(r)
		prevWord = isWord
	}
	return b.String()
}

// featureLabel is the lighter detail-view form: underscores become spaces.
func featureLabel(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
