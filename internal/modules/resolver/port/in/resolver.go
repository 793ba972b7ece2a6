package in

import (
	"context"

	"notebook/internal/modules/resolver/dto"
)

type ResolveInput struct {
	Topic string
}

type Usecase interface {
	Resolve(ctx context.Context, input ResolveInput) (dto.ResolveOutput, error)
}
