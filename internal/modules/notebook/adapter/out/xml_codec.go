package out

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strings"

	"notebook/internal/modules/notebook/domain"
)

// xmlDocument mirrors <data><topic name="..."><wikipedia>link</wikipedia></topic></data>.
type xmlDocument struct {
	XMLName xml.Name   `xml:"data"`
	Topics  []xmlTopic `xml:"topic"`
}

type xmlTopic struct {
	Name      string  `xml:"name,attr"`
	Wikipedia *string `xml:"wikipedia"`
}

type xmlCodec struct{}

func (xmlCodec) Name() string { return "xml" }

func (xmlCodec) Encode(c domain.Collection) ([]byte, error) {
	doc := xmlDocument{Topics: make([]xmlTopic, 0, c.Len())}
	for _, t := range c.Topics {
		if err := domain.CheckText("topic name", t.Name); err != nil {
			return nil, err
		}
		if err := domain.CheckText("link", t.Link); err != nil {
			return nil, err
		}
		item := xmlTopic{Name: t.Name}
		if t.HasLink() {
			link := t.Link
			item.Wikipedia = &link
		}
		doc.Topics = append(doc.Topics, item)
	}
	raw, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, err
	}
	buf := bytes.Buffer{}
	buf.WriteString(xml.Header)
	buf.Write(raw)
	buf.WriteString("\n")
	return buf.Bytes(), nil
}

func (xmlCodec) Decode(raw []byte) (domain.Collection, error) {
	doc := xmlDocument{}
	if err := xml.Unmarshal(raw, &doc); err != nil {
		return domain.Collection{}, fmt.Errorf("%w: %v", domain.ErrCorruptDocument, err)
	}
	topics := make([]domain.Topic, 0, len(doc.Topics))
	for i, item := range doc.Topics {
		if strings.TrimSpace(item.Name) == "" {
			return domain.Collection{}, fmt.Errorf("%w: topic %d has no name", domain.ErrCorruptDocument, i)
		}
		topic := domain.Topic{Name: item.Name}
		if item.Wikipedia != nil {
			topic.Link = strings.TrimSpace(*item.Wikipedia)
		}
		topics = append(topics, topic)
	}
	return domain.NewCollection(topics...), nil
}
