package usecase

import (
	"context"

	"notebook/internal/modules/notebook/domain"
	"notebook/internal/modules/notebook/dto"
	notebookin "notebook/internal/modules/notebook/port/in"
	"notebook/internal/modules/notebook/service"
)

type Interactor struct {
	svc *service.NotebookService
}

func NewInteractor(svc *service.NotebookService) notebookin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Initialize(ctx context.Context) error {
	return i.svc.Initialize(ctx)
}

func (i *Interactor) AddTopic(ctx context.Context, input notebookin.AddTopicInput) dto.AddTopicOutput {
	return dto.AddTopicOutput{
		Topic:   input.Topic,
		Message: i.svc.AddTopicWithWikiLink(ctx, input.Topic),
	}
}

func (i *Interactor) ListTopics(ctx context.Context) ([]dto.TopicOutput, error) {
	topics, err := i.svc.ListTopics(ctx)
	if err != nil {
		return nil, err
	}
	return mapTopics(topics), nil
}

func (i *Interactor) GetTopic(ctx context.Context, name string) (dto.TopicOutput, error) {
	topic, err := i.svc.GetTopic(ctx, name)
	if err != nil {
		return dto.TopicOutput{}, err
	}
	return dto.TopicOutput{Name: topic.Name, Link: topic.Link}, nil
}

func (i *Interactor) Serve(ctx context.Context, addr string) error {
	return i.svc.Serve(ctx, addr)
}

func mapTopics(topics []domain.Topic) []dto.TopicOutput {
	out := make([]dto.TopicOutput, 0, len(topics))
	for _, t := range topics {
		out = append(out, dto.TopicOutput{Name: t.Name, Link: t.Link})
	}
	return out
}
