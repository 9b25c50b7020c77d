package types

// ItemSnapshot is a point-in-time copy of one feed item as rendered by the source:
// its outer HTML and its visible text (one visual line per newline).
type ItemSnapshot struct {
	HTML string `json:"html"`
	Text string `json:"text"`
}
