package enrich

import (
	"encoding/json"
	"strings"

	"github.com/rotisserie/eris"
)

// stripFences removes a surrounding markdown code fence from capability
// output, which models sometimes add despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

// relevancePayload is the wire shape of the relevance stage's JSON output.
type relevancePayload struct {
	Relevant   bool     `json:"relevant"`
	Companies  []string `json:"companies"`
	Confidence float64  `json:"confidence"`
}

func parseRelevance(text string) (relevancePayload, error) {
	var p relevancePayload
	if err := json.Unmarshal([]byte(stripFences(text)), &p); err != nil {
		return p, eris.Wrap(err, "enrich: parse relevance response")
	}
	return p, nil
}

// sentimentPayload is the wire shape of the sentiment stage's JSON output.
type sentimentPayload struct {
	Score      float64 `json:"sentiment_score"`
	Label      string  `json:"sentiment_label"`
	Confidence float64 `json:"confidence"`
}

func parseSentiment(text string) (sentimentPayload, error) {
	var p sentimentPayload
	if err := json.Unmarshal([]byte(stripFences(text)), &p); err != nil {
		return p, eris.Wrap(err, "enrich: parse sentiment response")
	}
	return p, nil
}
