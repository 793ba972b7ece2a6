package usecase

import (
	"context"
	"fmt"
	"strings"

	"notebook/internal/modules/resolver/dto"
	resolverin "notebook/internal/modules/resolver/port/in"
	"notebook/internal/modules/resolver/service"
	apperrors "notebook/internal/platform/errors"
)

type Interactor struct {
	svc *service.ResolverService
}

func NewInteractor(svc *service.ResolverService) resolverin.Usecase {
	return &Interactor{svc: svc}
}

func (i *Interactor) Resolve(ctx context.Context, input resolverin.ResolveInput) (dto.ResolveOutput, error) {
	topic := strings.TrimSpace(input.Topic)
	if topic == "" {
		return dto.ResolveOutput{}, fmt.Errorf("%w: topic is required", apperrors.ErrInvalidInput)
	}
	result := i.svc.Resolve(ctx, topic)
	return dto.ResolveOutput{Topic: result.Topic, Link: result.Link, Found: result.Found}, nil
}
