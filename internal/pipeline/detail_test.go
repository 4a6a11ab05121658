package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/copilotpulse/internal/model"
)

func detailDataset(t *testing.T) model.Dataset {
	t.Helper()
	return Merge(decode(t,
		`{"day":"2025-01-01","user_login":"bob","code_generation_activity_count":5,"used_chat":true}`,
		`{"day":"2025-01-02","user_login":"alice","code_generation_activity_count":9,"code_acceptance_activity_count":3,"used_agent":true,
		  "totals_by_feature":[{"feature":"code_completion","code_generation_activity_count":9,"code_acceptance_activity_count":3},{"feature":"chat_panel"}]}`,
		`{"day":"2025-01-03","user_login":"bob","code_generation_activity_count":1}`,
		`{"day":"2025-01-03","user_login":"alice"}`,
		`{"day":"2025-01-04"}`,
		`{"user_login":"dayless"}`,
	))
}

func TestDetailRows_Fields(t *testing.T) {
	rows := DetailRows(detailDataset(t), model.DetailQuery{Sort: model.SortDate})
	require.Len(t, rows, 4)

	var alice model.DetailRow
	for _, r := range rows {
		if r.User == "alice" && r.Day == "2025-01-02" {
			alice = r
		}
	}
	require.Len(t, alice.Features, 1)
	assert.Equal(t, "code completion", alice.Features[0].Name)
	assert.InDelta(t, 100.0/3, alice.Features[0].AcceptanceRate, 1e-9)
	assert.Equal(t, []string{TopFeatureCompletions, TopFeatureAgent}, alice.TopFeatures)
	assert.True(t, alice.UsedAgent)

	var idle model.DetailRow
	for _, r := range rows {
		if r.User == "alice" && r.Day == "2025-01-03" {
			idle = r
		}
	}
	assert.Empty(t, idle.TopFeatures)
	assert.NotNil(t, idle.Features)
}

func TestDetailRows_SortModes(t *testing.T) {
	ds := detailDataset(t)
	keys := func(rows []model.DetailRow) []string {
		var out []string
		for _, r := range rows {
			out = append(out, r.User+"@"+r.Day[8:])
		}
		return out
	}

	byDate := DetailRows(ds, model.DetailQuery{Sort: model.SortDate})
	assert.Equal(t, []string{"bob@03", "alice@03", "alice@02", "bob@01"}, keys(byDate))

	byUser := DetailRows(ds, model.DetailQuery{Sort: model.SortUser})
	assert.Equal(t, []string{"alice@03", "alice@02", "bob@03", "bob@01"}, keys(byUser))

	byActivity := DetailRows(ds, model.DetailQuery{Sort: model.SortActivity})
	assert.Equal(t, []string{"alice@02", "bob@01", "bob@03", "alice@03"}, keys(byActivity))
}

func TestDetailRows_DateRangeInclusive(t *testing.T) {
	rows := DetailRows(detailDataset(t), model.DetailQuery{From: "2025-01-02", To: "2025-01-03", Sort: model.SortDate})
	require.Len(t, rows, 3)
	for _, r := range rows {
		assert.GreaterOrEqual(t, r.Day, "2025-01-02")
		assert.LessOrEqual(t, r.Day, "2025-01-03")
	}
}

func TestDetailRows_DefaultCap(t *testing.T) {
	var recs []model.Record
	for i := range 60 {
		recs = append(recs, rec(fmt.Sprintf("2025-02-%02d", i%28+1), fmt.Sprintf("u%02d", i), 1, 0))
	}
	ds := Merge(recs)

	assert.Len(t, DetailRows(ds, model.DetailQuery{}), DefaultDetailLimit)
	assert.Len(t, DetailRows(ds, model.DetailQuery{From: "2025-02-01"}), 60, "filtered queries are not capped")
	assert.Len(t, DetailRows(ds, model.DetailQuery{Limit: 5}), 5)
	assert.Len(t, DetailRows(ds, model.DetailQuery{Limit: -1}), 60)
}
