package out

import (
	"context"
	"fmt"
	"strings"

	"notebook/internal/modules/resolver/domain"
	resolverout "notebook/internal/modules/resolver/port/out"
)

// StaticBackend answers from a fixed topic to link table.
type StaticBackend struct {
	links map[string]string
}

func NewStaticBackend(links map[string]string) resolverout.Backend {
	copied := make(map[string]string, len(links))
	for topic, link := range links {
		copied[strings.TrimSpace(topic)] = link
	}
	return &StaticBackend{links: copied}
}

func (b *StaticBackend) Name() string { return "static" }

func (b *StaticBackend) Lookup(_ context.Context, topic string) (string, error) {
	link, ok := b.links[topic]
	if !ok || strings.TrimSpace(link) == "" {
		return "", fmt.Errorf("%w: %q", domain.ErrNoResult, topic)
	}
	return link, nil
}
