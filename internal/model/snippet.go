package model

// Snippet is a piece of source text gathered for a candidate, paired with
// the URL it came from.
type Snippet struct {
	Text      string `json:"text"`
	SourceURL string `json:"source_url"`
}
