package db

import "time"

// Resource is a row in the resources table.
type Resource struct {
	ID       string         `json:"id"`
	Resource string         `json:"resource"`
	Data     map[string]any `json:"data"`
	Created  time.Time      `json:"created"`
	Modified time.Time      `json:"modified"`
}

// Theme is a row in the themes table.
type Theme struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Version  string    `json:"version"`
	State    string    `json:"state"`
	Created  time.Time `json:"created"`
	Modified time.Time `json:"modified"`
}

// SearchParams filters and pages a resource search.
type SearchParams struct {
	// Filters match top-level data fields by JSON containment.
	Filters   map[string]any
	Page      int
	PerPage   int
	SortBy    string
	SortOrder string
}
