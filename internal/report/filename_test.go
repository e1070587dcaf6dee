package report

import "testing"

func TestSuggestedFilename(t *testing.T) {
	tests := []struct {
		name    string
		address string
		want    string
	}{
		{
			name:    "plain address uppercased",
			address: "123 Main Street, Apt 4b",
			want:    "123 MAIN STREET, APT 4B.pdf",
		},
		{
			name:    "hostile characters stripped",
			address: `12/34 Elm:Road*?"<>|`,
			want:    "12 34 ELM ROAD.pdf",
		},
		{
			name:    "whitespace collapsed",
			address: "  45   Oak\tAvenue \n",
			want:    "45 OAK AVENUE.pdf",
		},
		{
			name:    "empty address falls back",
			address: "",
			want:    "REPORT.pdf",
		},
		{
			name:    "only hostile characters falls back",
			address: `\/:*?`,
			want:    "REPORT.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SuggestedFilename(tt.address); got != tt.want {
				t.Errorf("SuggestedFilename(%q) = %q, want %q", tt.address, got, tt.want)
			}
		})
	}
}
