package out

import (
	"bytes"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"notebook/internal/modules/notebook/domain"
)

type yamlDocument struct {
	Topics []yamlTopic `yaml:"topics"`
}

type yamlTopic struct {
	Name string `yaml:"name"`
	Link string `yaml:"link,omitempty"`
}

type yamlCodec struct{}

func (yamlCodec) Name() string { return "yaml" }

func (yamlCodec) Encode(c domain.Collection) ([]byte, error) {
	doc := yamlDocument{Topics: make([]yamlTopic, 0, c.Len())}
	for _, t := range c.Topics {
		doc.Topics = append(doc.Topics, yamlTopic{Name: t.Name, Link: strings.TrimSpace(t.Link)})
	}
	return yaml.Marshal(doc)
}

func (yamlCodec) Decode(raw []byte) (domain.Collection, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(raw))
	decoder.KnownFields(true)
	doc := yamlDocument{}
	if err := decoder.Decode(&doc); err != nil {
		return domain.Collection{}, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	topics := make([]domain.Topic, 0, len(doc.Topics))
	for i, item := range doc.Topics {
		if strings.TrimSpace(item.Name) == "" {
			return domain.Collection{}, fmt.Errorf("%w: topic %d has no name", domain.ErrCorruptDocument, i)
		}
		topics = append(topics, domain.Topic{Name: item.Name, Link: strings.TrimSpace(item.Link)})
	}
	return domain.NewCollection(topics...), nil
}
