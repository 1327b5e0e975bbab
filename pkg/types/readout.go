package types

// TextSpan is one piece of text reported by a vision model, with a box
// normalized to the [0,1] range of the image it was read from
type TextSpan struct {
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
	Box        Box     `json:"box"`
}

// TextReadout is the JSON document vision models are asked to return
type TextReadout struct {
	Spans []TextSpan `json:"spans"`
}
