package assistant

import "testing"

func TestExtractTeam(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"argentina matches", "argentina"},
		{"show matches for france", "france"},
		{"matches with brazil", "brazil"},
		{"fixtures of germany", "germany"},
		{"mexico games", "mexico"},

		// query keywords are never team names
		{"upcoming matches", ""},
		{"finished matches", ""},
		{"all matches", ""},
		{"show matches", ""},
		{"group stage matches", ""},

		// no anchor keyword at all
		{"argentina", ""},
		{"tell me about argentina", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractTeam(tt.query); got != tt.want {
			t.Errorf("extractTeam(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

func TestExtractRecordTeam(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"record of france", "france"},
		{"history for brazil", "brazil"},
		{"past results of argentina", "argentina"},
		{"record", ""},
		{"record of the", ""},
	}
	for _, tt := range tests {
		if got := extractRecordTeam(tt.query); got != tt.want {
			t.Errorf("extractRecordTeam(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}

// Table order is load-bearing: "semi"/"quarter" must win over the "final"
// substring they contain.
func TestExtractStage(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"group stage matches", StageGroupStage},
		{"group games", StageGroupStage},
		{"semifinal matches", StageSemifinals},
		{"who plays the semi", StageSemifinals},
		{"quarterfinal schedule", StageQuarterfinals},
		{"round of 16 matches", StageRoundOf16},
		{"ro16", StageRoundOf16},
		{"the final", StageFinal},
		{"final matches", StageFinal},
		{"no stage words here", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := extractStage(tt.query); got != tt.want {
			t.Errorf("extractStage(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
}
