package storage

import "testing"

func TestMatches(t *testing.T) {
	doc := []byte(`{"id":"1","genre":"sci-fi","available":true,"pages":412}`)

	tests := []struct {
		name   string
		filter string
		want   bool
	}{
		{"empty", `{}`, true},
		{"string field", `{"genre":"sci-fi"}`, true},
		{"bool field", `{"available":true}`, true},
		{"number field", `{"pages":412}`, true},
		{"mismatch", `{"genre":"poetry"}`, false},
		{"missing field", `{"artist":"x"}`, false},
		{"type mismatch", `{"available":"true"}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Matches(doc, []byte(tt.filter))
			if err != nil {
				t.Fatalf("Matches: %v", err)
			}
			if got != tt.want {
				t.Errorf("Matches = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMatchesInvalidFilter(t *testing.T) {
	if _, err := Matches([]byte(`{}`), []byte(`not json`)); err == nil {
		t.Error("expected error for invalid filter")
	}
}
