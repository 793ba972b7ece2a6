package out

import (
	"context"

	notebookout "notebook/internal/modules/notebook/port/out"
	resolverin "notebook/internal/modules/resolver/port/in"
)

// ResolverBridge exposes the resolver module as the notebook's LinkResolver.
type ResolverBridge struct {
	resolver resolverin.Usecase
}

func NewResolverBridge(resolver resolverin.Usecase) notebookout.LinkResolver {
	return &ResolverBridge{resolver: resolver}
}

func (b *ResolverBridge) Resolve(ctx context.Context, topic string) (string, bool) {
	out, err := b.resolver.Resolve(ctx, resolverin.ResolveInput{Topic: topic})
	if err != nil || !out.Found {
		return "", false
	}
	return out.Link, true
}
