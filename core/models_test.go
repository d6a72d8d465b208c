package core

import (
	"testing"
)

func TestSessionKeyFor(t *testing.T) {
	tests := []struct {
		name     string
		model    string
		version  int
		wantSame bool
	}{
		{
			name:     "same coordinates produce same key",
			model:    "all-MiniLM-L6-v2-finetuned",
			version:  1,
			wantSame: true,
		},
		{
			name:     "empty name",
			model:    "",
			version:  1,
			wantSame: true,
		},
		{
			name:     "long name",
			model:    "sentence-transformers/msmarco-distilbert-base-tas-b-finetuned-for-synthetic-queries",
			version:  12,
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k1 := SessionKeyFor(tt.model, tt.version)
			k2 := SessionKeyFor(tt.model, tt.version)

			if tt.wantSame && k1 != k2 {
				t.Errorf("SessionKeyFor() produced different keys for same coordinates: %d vs %d", k1, k2)
			}
		})
	}
}

func TestSessionKeyFor_Different(t *testing.T) {
	k1 := SessionKeyFor("model-a", 1)
	k2 := SessionKeyFor("model-b", 1)
	k3 := SessionKeyFor("model-a", 2)

	if k1 == k2 {
		t.Errorf("SessionKeyFor() produced same key for different names")
	}
	if k1 == k3 {
		t.Errorf("SessionKeyFor() produced same key for different versions")
	}
}

func TestDigest_RoundTrip(t *testing.T) {
	var d Digest
	for i := range d {
		d[i] = byte(i)
	}

	parsed, err := ParseDigest(d.String())
	if err != nil {
		t.Fatalf("ParseDigest() error = %v", err)
	}
	if parsed != d {
		t.Errorf("ParseDigest(String()) = %v, want %v", parsed, d)
	}
}

func TestParseDigest_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "not hex", input: "zzzz"},
		{name: "too short", input: "abcd"},
		{name: "empty", input: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseDigest(tt.input); err == nil {
				t.Errorf("ParseDigest(%q) expected error, got nil", tt.input)
			}
		})
	}
}

func TestModelState_Terminal(t *testing.T) {
	tests := []struct {
		state ModelState
		want  bool
	}{
		{StateCreated, false},
		{StateUploading, false},
		{StateUploaded, true},
		{StateFailed, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			if got := tt.state.Terminal(); got != tt.want {
				t.Errorf("Terminal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUploadSession_Complete(t *testing.T) {
	s := UploadSession{
		ChunkCount: 3,
		Acked:      []bool{true, false, true},
	}

	if s.Complete() {
		t.Errorf("Complete() = true with unacknowledged index")
	}
	if got := s.AckedCount(); got != 2 {
		t.Errorf("AckedCount() = %d, want 2", got)
	}

	s.Acked[1] = true
	if !s.Complete() {
		t.Errorf("Complete() = false with all indices acknowledged")
	}
}

func TestUploadSession_Complete_Empty(t *testing.T) {
	s := UploadSession{}
	if s.Complete() {
		t.Errorf("Complete() = true for empty session")
	}
}
