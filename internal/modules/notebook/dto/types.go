package dto

type TopicOutput struct {
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

type AddTopicOutput struct {
	Topic   string `json:"topic"`
	Message string `json:"message"`
}
