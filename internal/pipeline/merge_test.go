package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/theirongolddev/copilotpulse/internal/model"
)

func TestMerge_LaterSourceWins(t *testing.T) {
	a := decode(t, `{"date":"2024-01-01","user":"alice","code_generation_activity_count":5}`)
	b := decode(t, `{"date":"2024-01-01","user":"alice","code_generation_activity_count":9}`)

	ds := Merge(a, b)
	require.Equal(t, 1, ds.Len())
	got := ds.Records()[0]
	assert.Equal(t, "alice", got.UserLogin)
	assert.Equal(t, int64(9), got.CodeGenerations)

	// Reversing the order flips the winner.
	ds = Merge(b, a)
	assert.Equal(t, int64(5), ds.Records()[0].CodeGenerations)
}

func TestMerge_DateDecidesIdentityOverDay(t *testing.T) {
	a := decode(t, `{"date":"2024-01-01","day":"2024-02-01","user_login":"alice","code_generation_activity_count":5}`)
	b := decode(t, `{"date":"2024-01-01","user_login":"alice","code_generation_activity_count":9}`)

	ds := Merge(a, b)
	require.Equal(t, 1, ds.Len())
	got := ds.Records()[0]
	assert.Equal(t, "2024-01-01|alice", got.Key())
	assert.Equal(t, int64(9), got.CodeGenerations)

	st := Stats(Merge(a))
	require.NotNil(t, st.DateRange)
	assert.Equal(t, "2024-01-01", st.DateRange.Start)
	assert.Equal(t, 1, st.UniqueDates)
}

func TestMerge_SortsByDateBeforeDay(t *testing.T) {
	ds := Merge(decode(t,
		`{"date":"2024-03-01","day":"2024-01-01","user_login":"a"}`,
		`{"day":"2024-02-01","user_login":"b"}`,
	))
	recs := ds.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[0].UserLogin)
	assert.Equal(t, "a", recs[1].UserLogin)
}

func TestMerge_SameFileLastOccurrenceWins(t *testing.T) {
	src := []model.Record{
		rec("2025-01-01", "a", 1, 0),
		rec("2025-01-01", "a", 2, 0),
	}
	ds := Merge(src)
	require.Equal(t, 1, ds.Len())
	assert.Equal(t, int64(2), ds.Records()[0].CodeGenerations)
}

func TestMerge_Idempotent(t *testing.T) {
	src := []model.Record{
		rec("2025-01-02", "a", 3, 1),
		rec("2025-01-01", "b", 4, 2),
		rec("2025-01-01", "a", 5, 3),
	}
	once := Merge(src)
	twice := Merge(src, src)
	assert.Equal(t, once.Records(), twice.Records())
}

func TestMerge_SortedByDay(t *testing.T) {
	ds := Merge(
		[]model.Record{rec("2025-03-05", "a", 0, 0), rec("2025-03-01", "b", 0, 0)},
		[]model.Record{rec("2025-03-03", "c", 0, 0), rec("2025-03-01", "a", 0, 0)},
	)
	recs := ds.Records()
	require.Len(t, recs, 4)
	for i := 1; i < len(recs); i++ {
		if recs[i].Day < recs[i-1].Day {
			t.Fatalf("day %s follows %s at %d", recs[i].Day, recs[i-1].Day, i)
		}
	}
	// Same-day ties keep first-insertion order of their keys.
	assert.Equal(t, "b", recs[0].UserLogin)
	assert.Equal(t, "a", recs[1].UserLogin)
}

func TestMerge_OverwriteKeepsFirstPosition(t *testing.T) {
	ds := Merge(
		[]model.Record{rec("2025-01-01", "x", 1, 0), rec("2025-01-01", "y", 1, 0)},
		[]model.Record{rec("2025-01-01", "x", 7, 0)},
	)
	recs := ds.Records()
	assert.Equal(t, []string{"x", "y"}, []string{recs[0].UserLogin, recs[1].UserLogin})
	assert.Equal(t, int64(7), recs[0].CodeGenerations)
}

func TestMerge_Empty(t *testing.T) {
	ds := Merge()
	assert.Zero(t, ds.Len())
	ds = Merge(nil, []model.Record{})
	assert.Zero(t, ds.Len())
}

func TestStats(t *testing.T) {
	ds := Merge([]model.Record{
		rec("2025-02-01", "a", 0, 0),
		rec("2025-02-03", "a", 0, 0),
		rec("2025-02-03", "b", 0, 0),
		rec("", "c", 0, 0),
	})

	st := Stats(ds)
	assert.Equal(t, 4, st.TotalRecords)
	assert.Equal(t, 2, st.UniqueDates)
	assert.Equal(t, 3, st.UniqueUsers)
	require.NotNil(t, st.DateRange)
	assert.Equal(t, model.DateRange{Start: "2025-02-01", End: "2025-02-03"}, *st.DateRange)
}

func TestStats_NoDates(t *testing.T) {
	st := Stats(Merge([]model.Record{rec("", "a", 1, 0)}))
	assert.Nil(t, st.DateRange)
	assert.Nil(t, DateRange(model.Dataset{}))
}
