// Package store holds the per-session view state of the dashboard. State
// transitions go through Reduce, a pure function of (state, action).
package store

import (
	"encoding/json"
)

// Record is one cached document, identified by ID.
type Record struct {
	ID   string          `json:"id"`
	Data json.RawMessage `json:"data"`
}

// State is a transient, non-authoritative copy of one collection.
type State struct {
	Collection string   `json:"collection"`
	Records    []Record `json:"records"`
	Loading    bool     `json:"loading"`
	Err        string   `json:"error,omitempty"`
}

type ActionType string

const (
	ActionRequested ActionType = "REQUESTED"
	ActionLoaded    ActionType = "LOADED"
	ActionUpserted  ActionType = "UPSERTED"
	ActionRemoved   ActionType = "REMOVED"
	ActionFailed    ActionType = "FAILED"
)

type Action struct {
	Type    ActionType `json:"type"`
	Records []Record   `json:"records,omitempty"`
	Record  *Record    `json:"record,omitempty"`
	ID      string     `json:"id,omitempty"`
	Err     string     `json:"error,omitempty"`
}

func Requested() Action              { return Action{Type: ActionRequested} }
func Loaded(records []Record) Action { return Action{Type: ActionLoaded, Records: records} }
func Upserted(rec Record) Action     { return Action{Type: ActionUpserted, Record: &rec} }
func Removed(id string) Action       { return Action{Type: ActionRemoved, ID: id} }
func Failed(err error) Action        { return Action{Type: ActionFailed, Err: err.Error()} }

// Reduce returns the state after applying a. The input state is never modified.
//
// Loaded overwrites the records wholesale. Upserted shallow-merges the record
// into an existing one with the same ID (last write wins) or prepends it.
// Failed keeps the previous records so the view can still show them.
func Reduce(s State, a Action) State {
	next := State{Collection: s.Collection, Records: s.Records, Loading: s.Loading, Err: s.Err}

	switch a.Type {
	case ActionRequested:
		next.Loading = true
		next.Err = ""
	case ActionLoaded:
		next.Records = append([]Record(nil), a.Records...)
		next.Loading = false
		next.Err = ""
	case ActionUpserted:
		if a.Record == nil {
			return next
		}
		next.Records = upsert(s.Records, *a.Record)
	case ActionRemoved:
		next.Records = remove(s.Records, a.ID)
	case ActionFailed:
		next.Loading = false
		next.Err = a.Err
	}
	return next
}

func upsert(records []Record, rec Record) []Record {
	out := make([]Record, 0, len(records)+1)
	found := false
	for _, r := range records {
		if r.ID == rec.ID {
			r = Record{ID: r.ID, Data: mergeJSON(r.Data, rec.Data)}
			found = true
		}
		out = append(out, r)
	}
	if !found {
		out = append([]Record{rec}, out...)
	}
	return out
}

func remove(records []Record, id string) []Record {
	out := make([]Record, 0, len(records))
	for _, r := range records {
		if r.ID != id {
			out = append(out, r)
		}
	}
	return out
}

// mergeJSON overlays the top-level members of patch onto base. Non-object
// inputs are replaced by patch.
func mergeJSON(base, patch json.RawMessage) json.RawMessage {
	var b, p map[string]json.RawMessage
	if json.Unmarshal(base, &b) != nil || json.Unmarshal(patch, &p) != nil || b == nil {
		return patch
	}
	merged := make(map[string]json.RawMessage, len(b)+len(p))
	for k, v := range b {
		merged[k] = v
	}
	for k, v := range p {
		merged[k] = v
	}
	out, err := json.Marshal(merged)
	if err != nil {
		return patch
	}
	return out
}
