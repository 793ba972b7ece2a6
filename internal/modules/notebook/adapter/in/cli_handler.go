package in

import (
	"context"

	"notebook/internal/modules/notebook/dto"
	notebookin "notebook/internal/modules/notebook/port/in"
)

type CLIHandler struct {
	usecase notebookin.Usecase
}

func NewCLIHandler(usecase notebookin.Usecase) CLIHandler {
	return CLIHandler{usecase: usecase}
}

func (h CLIHandler) Initialize(ctx context.Context) error {
	return h.usecase.Initialize(ctx)
}

func (h CLIHandler) AddTopic(ctx context.Context, topic string) dto.AddTopicOutput {
	return h.usecase.AddTopic(ctx, notebookin.AddTopicInput{Topic: topic})
}

func (h CLIHandler) ListTopics(ctx context.Context) ([]dto.TopicOutput, error) {
	return h.usecase.ListTopics(ctx)
}

func (h CLIHandler) GetTopic(ctx context.Context, name string) (dto.TopicOutput, error) {
	return h.usecase.GetTopic(ctx, name)
}

func (h CLIHandler) Serve(ctx context.Context, addr string) error {
	return h.usecase.Serve(ctx, addr)
}
