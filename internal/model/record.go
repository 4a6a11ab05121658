// Package model defines domain types for copilotpulse records and metrics.
package model

import (
	"encoding/json"
	"iter"
	"slices"
)

// Record is one usage observation for one user on one calendar day.
// Missing numeric fields are 0 and missing flags are false.
type Record struct {
	Day       string // ISO YYYY-MM-DD; from "day", falling back to "date"
	UserLogin string // from "user_login", falling back to "user"

	// MergeDate is set only when "date" and "day" disagree. It holds
	// "date", which decides identity and merge order.
	MergeDate string

	CodeGenerations int64
	CodeAcceptances int64
	Interactions    int64
	LOCAdded        int64
	LOCSuggested    int64
	UsedChat        bool
	UsedAgent       bool

	Languages []LanguageTotals
	Features  []FeatureTotals
	IDEs      []IDETotals
	Models    []ModelTotals

	// Raw is the record exactly as it appeared in its source file.
	Raw json.RawMessage
}

// LanguageTotals is one entry of totals_by_language_feature.
type LanguageTotals struct {
	Language    string
	Generations int64
	Acceptances int64
}

// FeatureTotals is one entry of totals_by_feature. Feature is "" when
// neither feature nor name was present.
type FeatureTotals struct {
	Feature     string
	Generations int64
	Acceptances int64
}

// IDETotals is one entry of totals_by_ide.
type IDETotals struct {
	IDE          string
	Generations  int64
	EngagedUsers int64
}

// ModelTotals is one entry of totals_by_language_model.
type ModelTotals struct {
	Model        string
	Generations  int64
	EngagedUsers int64
}

// MergeDay returns the day used for identity and merge ordering: "date"
// when present, else "day".
func (r Record) MergeDay() string {
	if r.MergeDate != "" {
		return r.MergeDate
	}
	return r.Day
}

// Key returns the identity key used for deduplication.
func (r Record) Key() string {
	return r.MergeDay() + "|" + r.UserLogin
}

// MarshalJSON emits the original source bytes when available.
func (r Record) MarshalJSON() ([]byte, error) {
	if len(r.Raw) > 0 {
		return r.Raw, nil
	}
	return json.Marshal(r.wire())
}

type wireRecord struct {
	Day       Text `json:"day,omitempty"`
	Date      Text `json:"date,omitempty"`
	UserLogin Text `json:"user_login,omitempty"`
	User      Text `json:"user,omitempty"`

	CodeGenerations Count `json:"code_generation_activity_count"`
	CodeAcceptances Count `json:"code_acceptance_activity_count"`
	Interactions    Count `json:"user_initiated_interaction_count"`
	LOCAdded        Count `json:"loc_added_sum"`
	LOCSuggested    Count `json:"loc_suggested_to_add_sum"`
	UsedChat        Flag  `json:"used_chat"`
	UsedAgent       Flag  `json:"used_agent"`

	Languages List[wireLanguage] `json:"totals_by_language_feature,omitempty"`
	Features  List[wireFeature]  `json:"totals_by_feature,omitempty"`
	IDEs      List[wireIDE]      `json:"totals_by_ide,omitempty"`
	Models    List[wireModel]    `json:"totals_by_language_model,omitempty"`
}

type wireLanguage struct {
	Language    Text  `json:"language,omitempty"`
	Generations Count `json:"code_generation_activity_count"`
	Acceptances Count `json:"code_acceptance_activity_count"`
}

type wireFeature struct {
	Feature     Text  `json:"feature,omitempty"`
	Name        Text  `json:"name,omitempty"`
	Generations Count `json:"code_generation_activity_count"`
	Acceptances Count `json:"code_acceptance_activity_count"`
}

type wireIDE struct {
	IDE          Text  `json:"ide,omitempty"`
	IDEName      Text  `json:"ide_name,omitempty"`
	Name         Text  `json:"name,omitempty"`
	Generations  Count `json:"code_generation_activity_count"`
	EngagedUsers Count `json:"total_engaged_users"`
}

type wireModel struct {
	Model        Text  `json:"model,omitempty"`
	Name         Text  `json:"name,omitempty"`
	Generations  Count `json:"code_generation_activity_count"`
	EngagedUsers Count `json:"total_engaged_users"`
}

// DecodeRecord interprets one parsed JSON value as a Record. Values that
// are not objects decode to a Record with only Raw set.
func DecodeRecord(raw json.RawMessage) Record {
	var w wireRecord
	if err := json.Unmarshal(raw, &w); err != nil {
		return Record{Raw: raw}
	}

	r := Record{
		Day:             firstText(w.Day, w.Date),
		UserLogin:       firstText(w.UserLogin, w.User),
		CodeGenerations: int64(w.CodeGenerations),
		CodeAcceptances: int64(w.CodeAcceptances),
		Interactions:    int64(w.Interactions),
		LOCAdded:        int64(w.LOCAdded),
		LOCSuggested:    int64(w.LOCSuggested),
		UsedChat:        bool(w.UsedChat),
		UsedAgent:       bool(w.UsedAgent),
		Raw:             raw,
	}
	if date := firstText(w.Date, w.Day); date != r.Day {
		r.MergeDate = date
	}
	for _, l := range w.Languages {
		r.Languages = append(r.Languages, LanguageTotals{
			Language:    string(l.Language),
			Generations: int64(l.Generations),
			Acceptances: int64(l.Acceptances),
		})
	}
	for _, f := range w.Features {
		r.Features = append(r.Features, FeatureTotals{
			Feature:     firstText(f.Feature, f.Name),
			Generations: int64(f.Generations),
			Acceptances: int64(f.Acceptances),
		})
	}
	for _, i := range w.IDEs {
		r.IDEs = append(r.IDEs, IDETotals{
			IDE:          firstText(i.IDE, i.IDEName, i.Name),
			Generations:  int64(i.Generations),
			EngagedUsers: int64(i.EngagedUsers),
		})
	}
	for _, m := range w.Models {
		r.Models = append(r.Models, ModelTotals{
			Model:        firstText(m.Model, m.Name),
			Generations:  int64(m.Generations),
			EngagedUsers: int64(m.EngagedUsers),
		})
	}
	return r
}

// DecodeRecords decodes every element of a parse result.
func DecodeRecords(raws []json.RawMessage) []Record {
	out := make([]Record, len(raws))
	for i, raw := range raws {
		out[i] = DecodeRecord(raw)
	}
	return out
}

func (r Record) wire() wireRecord {
	w := wireRecord{
		Day:             Text(r.Day),
		UserLogin:       Text(r.UserLogin),
		CodeGenerations: Count(r.CodeGenerations),
		CodeAcceptances: Count(r.CodeAcceptances),
		Interactions:    Count(r.Interactions),
		LOCAdded:        Count(r.LOCAdded),
		LOCSuggested:    Count(r.LOCSuggested),
		UsedChat:        Flag(r.UsedChat),
		UsedAgent:       Flag(r.UsedAgent),
	}
	for _, l := range r.Languages {
		w.Languages = append(w.Languages, wireLanguage{Text(l.Language), Count(l.Generations), Count(l.Acceptances)})
	}
	for _, f := range r.Features {
		w.Features = append(w.Features, wireFeature{Feature: Text(f.Feature), Generations: Count(f.Generations), Acceptances: Count(f.Acceptances)})
	}
	for _, i := range r.IDEs {
		w.IDEs = append(w.IDEs, wireIDE{IDE: Text(i.IDE), Generations: Count(i.Generations), EngagedUsers: Count(i.EngagedUsers)})
	}
	for _, m := range r.Models {
		w.Models = append(w.Models, wireModel{Model: Text(m.Model), Generations: Count(m.Generations), EngagedUsers: Count(m.EngagedUsers)})
	}
	return w
}

// Dataset is an immutable, day-ordered sequence of records with at most one
// record per identity key. Build one with pipeline.Merge.
type Dataset struct {
	records []Record
}

// NewDataset wraps records that are already deduplicated and sorted.
// The slice is copied.
func NewDataset(records []Record) Dataset {
	return Dataset{records: slices.Clone(records)}
}

func (d Dataset) Len() int { return len(d.records) }

// Records returns a copy of the records.
func (d Dataset) Records() []Record {
	return slices.Clone(d.records)
}

// All iterates records in dataset order without copying.
func (d Dataset) All() iter.Seq2[int, Record] {
	return slices.All(d.records)
}

// Filter returns a new Dataset holding the records for which keep is true.
func (d Dataset) Filter(keep func(Record) bool) Dataset {
	var out []Record
	for _, r := range d.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return Dataset{records: out}
}
