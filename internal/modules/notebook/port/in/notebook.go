package in

import (
	"context"

	"notebook/internal/modules/notebook/dto"
)

type AddTopicInput struct {
	Topic string
}

type Usecase interface {
	Initialize(ctx context.Context) error
	AddTopic(ctx context.Context, input AddTopicInput) dto.AddTopicOutput
	ListTopics(ctx context.Context) ([]dto.TopicOutput, error)
	GetTopic(ctx context.Context, name string) (dto.TopicOutput, error)
	Serve(ctx context.Context, addr string) error
}
