package pipeline

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/copilotpulse/internal/model"
)

func TestSummarize_Empty(t *testing.T) {
	st := Summarize(Merge())
	if st.Users != 0 || st.Generations != 0 || st.AcceptanceRate != 0 {
		t.Errorf("Summarize(empty) = %+v, want zeros", st)
	}
}

func TestSummarize(t *testing.T) {
	ds := Merge(decode(t,
		`{"day":"2025-01-01","user_login":"a","code_generation_activity_count":10,"code_acceptance_activity_count":4,"user_initiated_interaction_count":3,"loc_added_sum":20}`,
		`{"day":"2025-01-02","user_login":"a","code_generation_activity_count":10,"code_acceptance_activity_count":1}`,
		`{"day":"2025-01-02","user_login":"b","user_initiated_interaction_count":2}`,
	))

	st := Summarize(ds)
	assert.Equal(t, 2, st.Users)
	assert.Equal(t, int64(20), st.Generations)
	assert.Equal(t, int64(5), st.Acceptances)
	assert.Equal(t, int64(5), st.Interactions)
	assert.Equal(t, int64(20), st.LOCAdded)
	assert.InDelta(t, 25.0, st.AcceptanceRate, 1e-9)
}

func TestSummarize_MissingGenerationsDefaultsToZero(t *testing.T) {
	ds := Merge(decode(t,
		`{"day":"2025-01-01","user_login":"a","code_acceptance_activity_count":3}`,
	))
	st := Summarize(ds)
	assert.Zero(t, st.Generations)
	assert.Zero(t, st.AcceptanceRate)
}

func TestAggregateDays(t *testing.T) {
	ds := Merge(decode(t,
		`{"day":"2025-01-02","user_login":"a","code_generation_activity_count":4,"code_acceptance_activity_count":2,"loc_added_sum":5,"loc_suggested_to_add_sum":9}`,
		`{"day":"2025-01-01","user_login":"a","code_generation_activity_count":1}`,
		`{"day":"2025-01-02","user_login":"b","code_generation_activity_count":6,"user_initiated_interaction_count":7}`,
		`{"user_login":"nodate","code_generation_activity_count":100}`,
	))

	days := AggregateDays(ds)
	require.Len(t, days, 2)

	assert.Equal(t, "2025-01-01", days[0].Day)
	assert.Equal(t, 1, days[0].ActiveUsers)

	d := days[1]
	assert.Equal(t, "2025-01-02", d.Day)
	assert.Equal(t, int64(10), d.Generations)
	assert.Equal(t, int64(2), d.Acceptances)
	assert.Equal(t, 2, d.ActiveUsers)
	assert.Equal(t, int64(7), d.Interactions)
	assert.Equal(t, int64(5), d.LOCAdded)
	assert.Equal(t, int64(9), d.LOCSuggested)
	assert.InDelta(t, 20.0, d.AcceptanceRate, 1e-9)
}

func TestActiveUserTrend(t *testing.T) {
	tests := []struct {
		name   string
		users  []int
		want   int
		avg    float64
		latest int
	}{
		{"up", []int{1, 1, 4}, 1, 2, 4},
		{"down", []int{5, 5, 2}, -1, 4, 2},
		{"flat", []int{3, 3}, 0, 3, 3},
		{"rounded average", []int{1, 2, 2}, 1, 1.7, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var days []model.DailyStats
			for i, u := range tt.users {
				days = append(days, model.DailyStats{Day: fmt.Sprintf("2025-01-%02d", i+1), ActiveUsers: u})
			}
			got := ActiveUserTrend(days)
			if got.Direction != tt.want {
				t.Errorf("Direction = %d, want %d", got.Direction, tt.want)
			}
			if got.Average != tt.avg {
				t.Errorf("Average = %v, want %v", got.Average, tt.avg)
			}
			if got.Latest != tt.latest {
				t.Errorf("Latest = %d, want %d", got.Latest, tt.latest)
			}
		})
	}

	assert.Equal(t, model.UserTrend{}, ActiveUserTrend(nil))
}

func TestAggregateUsers(t *testing.T) {
	var recs []model.Record
	for i := range 12 {
		user := fmt.Sprintf("user%02d", i)
		recs = append(recs, rec("2025-01-01", user, int64(i), int64(i/2)))
		recs = append(recs, rec("2025-01-02", user, 1, 0))
	}
	recs = append(recs, rec("2025-01-03", "", 1000, 0))

	users := AggregateUsers(Merge(recs), DefaultTopUsers)
	require.Len(t, users, 10)
	assert.Equal(t, "user11", users[0].User)
	assert.Equal(t, int64(12), users[0].Generations)
	assert.Equal(t, int64(5), users[0].Acceptances)
	assert.Equal(t, 2, users[0].ActiveDays)
	assert.InDelta(t, 5.0/12*100, users[0].AcceptanceRate, 1e-9)

	for i := 1; i < len(users); i++ {
		if users[i].Generations > users[i-1].Generations {
			t.Fatalf("users not sorted at %d", i)
		}
	}
	assert.Len(t, AggregateUsers(Merge(recs), 0), 12)
}

func TestAggregateUsers_ZeroGenerationsRateGuard(t *testing.T) {
	users := AggregateUsers(Merge([]model.Record{rec("2025-01-01", "idle", 0, 3)}), 10)
	require.Len(t, users, 1)
	assert.Zero(t, users[0].AcceptanceRate)
}

func TestAggregateAdoption(t *testing.T) {
	// 10 users: u0-u2 agent, u2-u5 chat (u2 overlaps), u6-u9 neither.
	var objs []string
	for i := range 10 {
		agent := i <= 2
		chat := i >= 2 && i <= 5
		objs = append(objs, fmt.Sprintf(`{"day":"2025-01-01","user_login":"u%d","used_agent":%t,"used_chat":%t}`, i, agent, chat))
	}
	// A second day for u9 without flags must not change anything.
	objs = append(objs, `{"day":"2025-01-02","user_login":"u9"}`)

	st := AggregateAdoption(Merge(decode(t, objs...)))
	assert.Equal(t, 10, st.TotalUsers)
	assert.Equal(t, 3, st.Agent)
	assert.Equal(t, 4, st.Chat)
	assert.Equal(t, 1, st.Both)
	assert.Equal(t, 6, st.Adopted)
	assert.Equal(t, 4, st.NotAdopted)
	assert.InDelta(t, 40.0, st.NotAdoptedPercent, 1e-9)
	assert.InDelta(t, 30.0, st.AgentPercent, 1e-9)
}

func TestAggregateAdoption_Empty(t *testing.T) {
	st := AggregateAdoption(Merge())
	assert.Equal(t, model.AdoptionStats{}, st)
}

func TestAggregateHeatmap(t *testing.T) {
	var recs []model.Record
	for i := range 14 {
		recs = append(recs, rec("2025-01-02", fmt.Sprintf("u%02d", i), int64(i), 1))
	}
	recs = append(recs, rec("2025-01-01", "u00", 3, 4))

	hm := AggregateHeatmap(Merge(recs), DefaultHeatmapUsers)
	require.Len(t, hm.Users, 12)
	assert.Equal(t, []string{"2025-01-01", "2025-01-02"}, hm.Days)

	// Dataset order is by day, so u00 (only user on 2025-01-01) comes first.
	assert.Equal(t, "u00", hm.Users[0])
	assert.Equal(t, int64(7), hm.Cells[0][0])
	assert.Equal(t, int64(1), hm.Cells[0][1])
	assert.Equal(t, int64(12), hm.Max) // u11: 11 + 1
	for _, row := range hm.Cells {
		assert.Len(t, row, 2)
	}
}
