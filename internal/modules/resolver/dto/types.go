package dto

type ResolveOutput struct {
	Topic string `json:"topic"`
	Link  string `json:"link,omitempty"`
	Found bool   `json:"found"`
}
