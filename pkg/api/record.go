package api

import (
	"encoding/json"
	"maps"
	"time"
)

// Record is the generic map-backed representation produced by the stock
// resource handler.
type Record struct {
	Resource string
	ID       string
	Data     map[string]any
	Created  time.Time
	Modified time.Time
}

// ResourceName implements Representation.
func (r *Record) ResourceName() string { return r.Resource }

// MarshalJSON flattens the record into a JSON-LD style object.
func (r *Record) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, len(r.Data)+4)
	maps.Copy(out, r.Data)
	out["@type"] = r.Resource
	out["o:id"] = r.ID
	if !r.Created.IsZero() {
		out["o:created"] = r.Created.UTC().Format(time.RFC3339)
	}
	if !r.Modified.IsZero() {
		out["o:modified"] = r.Modified.UTC().Format(time.RFC3339)
	}
	return json.Marshal(out)
}
