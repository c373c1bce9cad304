package retrieval

import "testing"

func TestFindFileNames(t *testing.T) {
	known := []string{"333.csv", "attack-patterns.csv", "1000.csv"}

	tests := []struct {
		name  string
		query string
		want  string
	}{
		{
			name:  "filename with trailing file keyword",
			query: "explain 333.csv file",
			want:  "333.csv",
		},
		{
			name:  "bare filename",
			query: "what does attack-patterns.csv cover?",
			want:  "attack-patterns.csv",
		},
		{
			name:  "no filename in query",
			query: "what is sql injection",
			want:  "",
		},
		{
			name:  "unknown filename is ignored",
			query: "summarize 999.csv please",
			want:  "",
		},
		{
			name:  "first known filename wins",
			query: "compare 1000.csv with 333.csv",
			want:  "1000.csv",
		},
		{
			name:  "sentence punctuation after filename",
			query: "tell me about 333.csv.",
			want:  "333.csv",
		},
		{
			name:  "empty query",
			query: "",
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FindFileNames(tt.query, known); got != tt.want {
				t.Errorf("FindFileNames(%q) = %q, want %q", tt.query, got, tt.want)
			}
		})
	}
}

func TestFindFileNamesNoKnownFiles(t *testing.T) {
	if got := FindFileNames("explain 333.csv file", nil); got != "" {
		t.Errorf("expected empty result with no known files, got %q", got)
	}
}
