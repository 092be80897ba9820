package models

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestNormalizeArticleID(t *testing.T) {
	cases := map[string]string{
		"32":     "ART-32",
		"ART-32": "ART-32",
		"5":      "ART-5",
		"ART-5":  "ART-5",
	}
	for input, want := range cases {
		if got := NormalizeArticleID(input); got != want {
			t.Errorf("NormalizeArticleID(%q) = %q, want %q", input, got, want)
		}
	}
}

func TestResponseChunkOmitsEmptyFields(t *testing.T) {
	data, err := json.Marshal(ResponseChunk{Type: ChunkTypeToken, Content: "hello"})
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	line := string(data)
	for _, field := range []string{"related_data", "results"} {
		if strings.Contains(line, field) {
			t.Errorf("empty %s must be omitted from the wire format: %s", field, line)
		}
	}
}

func TestResponseChunkRoundTripsSources(t *testing.T) {
	original := ResponseChunk{
		Type:    ChunkTypeSources,
		Results: []SearchHit{{ID: "ART-6", ArticleNumber: 6, Title: "Lawfulness of processing", Score: 0.88}},
	}

	data, err := json.Marshal(original)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded ResponseChunk
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if decoded.Type != ChunkTypeSources || len(decoded.Results) != 1 || decoded.Results[0].ID != "ART-6" {
		t.Errorf("round trip lost data: %+v", decoded)
	}
}
