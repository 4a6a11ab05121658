package model

// AcceptanceRate returns acceptances as a percentage of generations,
// or 0 when there were no generations.
func AcceptanceRate(acceptances, generations int64) float64 {
	if generations <= 0 {
		return 0
	}
	return float64(acceptances) / float64(generations) * 100
}

// DateRange is an inclusive [Start, End] pair of ISO dates.
type DateRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// MergeStats describes a merged dataset.
type MergeStats struct {
	TotalRecords int        `json:"total_records"`
	UniqueDates  int        `json:"unique_dates"`
	UniqueUsers  int        `json:"unique_users"`
	DateRange    *DateRange `json:"date_range"` // nil when no record carries a date
}

// SummaryStats holds the top-level totals across the working set.
type SummaryStats struct {
	Users          int     `json:"users"`
	Generations    int64   `json:"generations"`
	Acceptances    int64   `json:"acceptances"`
	Interactions   int64   `json:"interactions"`
	LOCAdded       int64   `json:"loc_added"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// DailyStats holds metrics for a single calendar day.
type DailyStats struct {
	Day            string  `json:"day"`
	Generations    int64   `json:"generations"`
	Acceptances    int64   `json:"acceptances"`
	AcceptanceRate float64 `json:"acceptance_rate"`
	ActiveUsers    int     `json:"active_users"`
	Interactions   int64   `json:"interactions"`
	LOCAdded       int64   `json:"loc_added"`
	LOCSuggested   int64   `json:"loc_suggested"`
}

// UserTrend compares the latest day's active users with the daily average.
type UserTrend struct {
	Average   float64 `json:"average"` // rounded to one decimal
	Latest    int     `json:"latest"`
	Direction int     `json:"direction"` // -1, 0, +1 vs Average
}

// UserStats holds aggregated activity for one user.
type UserStats struct {
	User           string  `json:"user"`
	Generations    int64   `json:"generations"`
	Acceptances    int64   `json:"acceptances"`
	ActiveDays     int     `json:"active_days"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// LanguageStats holds aggregated activity for one language.
type LanguageStats struct {
	Language       string  `json:"language"`
	Generations    int64   `json:"generations"`
	Acceptances    int64   `json:"acceptances"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// RateBand buckets an acceptance rate for colouring.
type RateBand int

const (
	RateLow RateBand = iota
	RateFair
	RateGood
)

func (b RateBand) String() string {
	switch b {
	case RateGood:
		return "good"
	case RateFair:
		return "fair"
	default:
		return "low"
	}
}

// BandFor classifies rate: >= 40 good, >= 25 fair, otherwise low.
func BandFor(rate float64) RateBand {
	switch {
	case rate >= 40:
		return RateGood
	case rate >= 25:
		return RateFair
	default:
		return RateLow
	}
}

// FeatureStats holds aggregated activity for one feature.
type FeatureStats struct {
	Feature        string  `json:"feature"` // key as exported, e.g. "code_completion"
	Name           string  `json:"name"`    // display form, e.g. "Code Completion"
	Generations    int64   `json:"generations"`
	Acceptances    int64   `json:"acceptances"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// FeatureMatrix is per-user generation counts broken down by feature.
// Features lists every feature seen across Rows in first-seen order.
type FeatureMatrix struct {
	Features []string         `json:"features"`
	Rows     []UserFeatureRow `json:"rows"`
}

// UserFeatureRow is one user's generations per feature. Generations is
// aligned with FeatureMatrix.Features.
type UserFeatureRow struct {
	User        string  `json:"user"`
	Generations []int64 `json:"generations"`
	Total       int64   `json:"total"`
}

// ShareStats is one slice of a share-of-usage breakdown (IDEs, models).
type ShareStats struct {
	Name         string  `json:"name"`
	Value        int64   `json:"value"`
	SharePercent float64 `json:"share_percent"`
}

// AdoptionStats counts users of the advanced features.
type AdoptionStats struct {
	TotalUsers int `json:"total_users"`
	Agent      int `json:"agent"`
	Chat       int `json:"chat"`
	Both       int `json:"both"`
	Adopted    int `json:"adopted"` // agent or chat
	NotAdopted int `json:"not_adopted"`

	AgentPercent      float64 `json:"agent_percent"`
	AdoptedPercent    float64 `json:"adopted_percent"`
	ChatPercent       float64 `json:"chat_percent"`
	BothPercent       float64 `json:"both_percent"`
	NotAdoptedPercent float64 `json:"not_adopted_percent"`
}

// Heatmap is user-by-day activity (generations + acceptances).
// Cells[i][j] is Users[i] on Days[j].
type Heatmap struct {
	Users []string  `json:"users"`
	Days  []string  `json:"days"`
	Cells [][]int64 `json:"cells"`
	Max   int64     `json:"max"`
}

// DetailSort selects the ordering of detail rows.
type DetailSort string

const (
	SortDate     DetailSort = "date"     // newest first
	SortUser     DetailSort = "user"     // user A-Z, then newest first
	SortActivity DetailSort = "activity" // most generations first
)

// DetailSorts lists the sort modes in toggle order.
var DetailSorts = []DetailSort{SortDate, SortUser, SortActivity}

// ParseDetailSort validates a sort mode name.
func ParseDetailSort(s string) (DetailSort, bool) {
	for _, v := range DetailSorts {
		if string(v) == s {
			return v, true
		}
	}
	return "", false
}

// Next returns the following sort mode in toggle order.
func (s DetailSort) Next() DetailSort {
	for i, v := range DetailSorts {
		if v == s {
			return DetailSorts[(i+1)%len(DetailSorts)]
		}
	}
	return SortDate
}

// DetailQuery filters and orders detail rows. From and To are inclusive
// ISO dates; empty means unbounded. Limit 0 means the default cap applies
// when unfiltered and no cap when filtered; a negative Limit never caps.
type DetailQuery struct {
	From  string
	To    string
	Sort  DetailSort
	Limit int
}

// Filtered reports whether a date bound is set.
func (q DetailQuery) Filtered() bool {
	return q.From != "" || q.To != ""
}

// DetailFeature is one feature's activity within a detail row.
type DetailFeature struct {
	Name           string  `json:"name"`
	Generations    int64   `json:"generations"`
	Acceptances    int64   `json:"acceptances"`
	AcceptanceRate float64 `json:"acceptance_rate"`
}

// DetailRow is one user's activity on one day.
type DetailRow struct {
	User         string          `json:"user"`
	Day          string          `json:"day"`
	Features     []DetailFeature `json:"features"`
	TopFeatures  []string        `json:"top_features"`
	Generations  int64           `json:"generations"`
	Acceptances  int64           `json:"acceptances"`
	Interactions int64           `json:"interactions"`
	UsedChat     bool            `json:"used_chat"`
	UsedAgent    bool            `json:"used_agent"`
}
