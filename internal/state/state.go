// Package state holds the loaded sources and the user's filter selection.
// State changes only through actions applied by Reduce.
package state

import (
	"slices"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/theirongolddev/copilotpulse/internal/model"
	"github.com/theirongolddev/copilotpulse/internal/pipeline"
)

// Source is one loaded input, usually a file.
type Source struct {
	ID      uuid.UUID
	Name    string
	Records []model.Record
}

// NewSource assigns a fresh ID to a named record set.
func NewSource(name string, records []model.Record) Source {
	return Source{ID: uuid.New(), Name: name, Records: records}
}

// Selection is the set of users views are filtered to. The zero value
// selects everyone.
type Selection struct {
	users map[string]struct{}
	set   bool // false means "all users"
}

// AllUsers selects everyone.
func AllUsers() Selection { return Selection{} }

// Only selects exactly the given users. An empty list selects nobody.
func Only(users ...string) Selection {
	return Selection{set: true, users: lo.SliceToMap(users, func(u string) (string, struct{}) {
		return u, struct{}{}
	})}
}

// All reports whether every user is selected.
func (s Selection) All() bool { return !s.set }

// Has reports whether user is selected.
func (s Selection) Has(user string) bool {
	if !s.set {
		return true
	}
	_, ok := s.users[user]
	return ok
}

// Users returns the explicit selection, sorted. Nil when all are selected.
func (s Selection) Users() []string {
	if !s.set {
		return nil
	}
	out := lo.Keys(s.users)
	slices.Sort(out)
	return out
}

// State is an immutable snapshot.
type State struct {
	Sources   []Source
	Dataset   model.Dataset
	Users     []string // every user in Dataset, sorted
	Selection Selection
	From, To  string
	Stats     model.MergeStats
}

// Working returns the dataset views aggregate: Dataset filtered by the
// selection and the date range. An explicit empty selection yields an
// empty dataset.
func (s State) Working() model.Dataset {
	ds := s.Dataset
	if s.Selection.set {
		ds = ds.Filter(func(r model.Record) bool { return s.Selection.Has(r.UserLogin) })
	}
	if s.From != "" || s.To != "" {
		ds = pipeline.FilterDays(ds, s.From, s.To)
	}
	return ds
}

// Action is a state transition.
type Action interface{ isAction() }

// Load replaces all sources and resets the selection. The date range is kept.
type Load struct{ Sources []Source }

// Reload replaces all sources but keeps the selection, minus users that
// are gone, and the date range.
type Reload struct{ Sources []Source }

// Merge appends sources and re-merges everything.
type Merge struct{ Sources []Source }

// SelectUsers sets an explicit selection. An empty list selects everyone.
type SelectUsers struct{ Users []string }

// ToggleUser flips one user in or out of the selection.
type ToggleUser struct{ User string }

// SelectAllUsers selects everyone.
type SelectAllUsers struct{}

// DeselectAllUsers selects nobody.
type DeselectAllUsers struct{}

// SetDateRange sets inclusive day bounds. Empty strings are open.
type SetDateRange struct{ From, To string }

// Clear drops all sources and filters.
type Clear struct{}

func (Load) isAction()             {}
func (Reload) isAction()           {}
func (Merge) isAction()            {}
func (SelectUsers) isAction()      {}
func (ToggleUser) isAction()       {}
func (SelectAllUsers) isAction()   {}
func (DeselectAllUsers) isAction() {}
func (SetDateRange) isAction()     {}
func (Clear) isAction()            {}

// Reduce applies a to s and returns the new state. s is not modified.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case Load:
		return withSources(State{From: s.From, To: s.To}, slices.Clone(a.Sources))
	case Reload:
		return withSources(s, slices.Clone(a.Sources))
	case Merge:
		return withSources(s, append(slices.Clone(s.Sources), a.Sources...))
	case SelectUsers:
		if len(a.Users) == 0 {
			s.Selection = AllUsers()
		} else {
			s.Selection = Only(a.Users...)
		}
	case ToggleUser:
		s.Selection = toggle(s.Selection, s.Users, a.User)
	case SelectAllUsers:
		s.Selection = AllUsers()
	case DeselectAllUsers:
		s.Selection = Only()
	case SetDateRange:
		s.From, s.To = a.From, a.To
	case Clear:
		return State{}
	}
	return s
}

func withSources(s State, sources []Source) State {
	recs := make([][]model.Record, len(sources))
	for i, src := range sources {
		recs[i] = src.Records
	}
	s.Sources = sources
	s.Dataset = pipeline.Merge(recs...)
	s.Users = pipeline.Users(s.Dataset)
	s.Stats = pipeline.Stats(s.Dataset)
	s.Selection = prune(s.Selection, s.Users)
	return s
}

// toggle expands "all" into the explicit user list before flipping, so
// unticking one user from the full set leaves the rest selected.
func toggle(sel Selection, users []string, user string) Selection {
	current := sel.Users()
	if sel.All() {
		current = slices.Clone(users)
	}
	if slices.Contains(current, user) {
		current = lo.Without(current, user)
	} else {
		current = append(current, user)
	}
	if len(current) == len(users) && lo.Every(current, users) {
		return AllUsers()
	}
	return Only(current...)
}

// prune drops selected users no longer present after a reload.
func prune(sel Selection, users []string) Selection {
	if sel.All() {
		return sel
	}
	return Only(lo.Filter(sel.Users(), func(u string, _ int) bool {
		return slices.Contains(users, u)
	})...)
}

// SourcesFrom turns each loaded file into a Source, in load order.
// Files that failed to read are skipped.
func SourcesFrom(res *pipeline.LoadResult) []Source {
	out := make([]Source, 0, len(res.Files))
	for _, f := range res.Files {
		if f.Err != nil {
			continue
		}
		out = append(out, NewSource(f.File.Path, f.Records))
	}
	return out
}
