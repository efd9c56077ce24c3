package storage

import "testing"

func TestWinningSide(t *testing.T) {
	tests := []struct {
		score1, score2 int
		want           string
	}{
		{2, 1, "team1"},
		{0, 3, "team2"},
		{1, 1, ""},
		{0, 0, ""},
	}
	for _, tt := range tests {
		if got := WinningSide(tt.score1, tt.score2); got != tt.want {
			t.Errorf("WinningSide(%d, %d) = %q, want %q", tt.score1, tt.score2, got, tt.want)
		}
	}
}
