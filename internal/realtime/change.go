package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// EventType is the kind of row change.
type EventType string

// Row change types. AllEvents subscribes to every type.
const (
	Insert EventType = "INSERT"
	Update EventType = "UPDATE"
	Delete EventType = "DELETE"
)

// AllEvents is the event type set matching every change.
var AllEvents = []EventType{Insert, Update, Delete}

// AllTables subscribes to changes on every table.
const AllTables = "*"

// Row is a table row as a column→value map (JSON field names).
type Row map[string]any

// Change describes one committed write.
type Change struct {
	Table      string    `json:"table"`
	Type       EventType `json:"type"`
	Old        Row       `json:"old,omitempty"`
	New        Row       `json:"new,omitempty"`
	CommitTime time.Time `json:"commit_time"`
}

// Record returns the row the change is about: New for inserts and
// updates, Old for deletes.
func (c Change) Record() Row {
	if c.Type == Delete {
		return c.Old
	}
	return c.New
}

// Filter restricts a subscription to rows whose Column equals Value.
// Conditions added with And must hold as well. The zero Filter matches
// every row.
type Filter struct {
	Column string
	Value  string

	and []Filter
}

// Eq builds a column=value filter.
func Eq(column, value string) Filter {
	return Filter{Column: column, Value: value}
}

// And returns f narrowed by a further column=value condition.
func (f Filter) And(column, value string) Filter {
	f.and = append(slices.Clone(f.and), Eq(column, value))
	return f
}

// Matches reports whether the change's record passes the filter.
func (f Filter) Matches(c Change) bool {
	for _, cond := range f.and {
		if !cond.Matches(c) {
			return false
		}
	}
	return f.matchesColumn(c)
}

func (f Filter) matchesColumn(c Change) bool {
	if f.Column == "" {
		return true
	}
	rec := c.Record()
	if rec == nil {
		return false
	}
	v, ok := rec[f.Column]
	if !ok || v == nil {
		return false
	}
	return fmt.Sprint(v) == f.Value
}

// Publisher is implemented by anything repositories can report writes to.
type Publisher interface {
	Publish(ctx context.Context, change Change)
}

// NopPublisher discards every change.
type NopPublisher struct{}

// Publish implements Publisher.
func (NopPublisher) Publish(context.Context, Change) {}

// RowOf converts a record to a Row using its JSON encoding. A value that
// cannot be encoded yields nil.
func RowOf(v any) Row {
	if v == nil {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	var row Row
	if err := json.Unmarshal(b, &row); err != nil {
		return nil
	}
	return row
}

// Inserted builds an INSERT change for rec.
func Inserted(table string, rec any) Change {
	return Change{Table: table, Type: Insert, New: RowOf(rec), CommitTime: time.Now().UTC()}
}

// Updated builds an UPDATE change. old may be nil when the previous row
// was not loaded.
func Updated(table string, old, rec any) Change {
	return Change{Table: table, Type: Update, Old: RowOf(old), New: RowOf(rec), CommitTime: time.Now().UTC()}
}

// Deleted builds a DELETE change for rec.
func Deleted(table string, rec any) Change {
	return Change{Table: table, Type: Delete, Old: RowOf(rec), CommitTime: time.Now().UTC()}
}
