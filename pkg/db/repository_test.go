package db

import "testing"

func TestNormalizePage(t *testing.T) {
	tests := []struct {
		page, perPage         int
		wantPage, wantPerPage int
	}{
		{0, 0, 1, DefaultPerPage},
		{-3, 10, 1, 10},
		{4, 50, 4, 50},
		{2, MaxPerPage + 1, 2, MaxPerPage},
	}
	for _, tt := range tests {
		page, perPage := normalizePage(tt.page, tt.perPage)
		if page != tt.wantPage || perPage != tt.wantPerPage {
			t.Errorf("db:repository_test - normalizePage(%d, %d) = %d, %d", tt.page, tt.perPage, page, perPage)
		}
	}
}

func TestOrderClause(t *testing.T) {
	tests := []struct {
		sortBy, sortOrder string
		want              string
		wantErr           bool
	}{
		{"", "", "ORDER BY created ASC, id", false},
		{"created", "desc", "ORDER BY created DESC, id", false},
		{"modified", "ASC", "ORDER BY modified ASC", false},
		{"dcterms:title", "desc", "ORDER BY data->>'dcterms:title' DESC, id", false},
		{"title'; DROP TABLE resources; --", "", "", true},
		{"title", "sideways", "", true},
	}
	for _, tt := range tests {
		got, err := orderClause(tt.sortBy, tt.sortOrder)
		if (err != nil) != tt.wantErr {
			t.Errorf("db:repository_test - orderClause(%q, %q) err = %v", tt.sortBy, tt.sortOrder, err)
			continue
		}
		if got != tt.want {
			t.Errorf("db:repository_test - orderClause(%q, %q) = %q, want %q", tt.sortBy, tt.sortOrder, got, tt.want)
		}
	}
}

func TestEncodeData(t *testing.T) {
	got, err := encodeData(nil)
	if err != nil || got != "{}" {
		t.Errorf("db:repository_test - encodeData(nil) = %q, %v", got, err)
	}
	got, err = encodeData(map[string]any{"title": "A"})
	if err != nil || got != `{"title":"A"}` {
		t.Errorf("db:repository_test - encodeData = %q, %v", got, err)
	}
	if _, err := encodeData(map[string]any{"bad": make(chan int)}); err == nil {
		t.Error("db:repository_test - expected error for unencodable data")
	}
}
