package domain

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ErrNoResult is returned by a backend that answered but had nothing for the topic.
var ErrNoResult = errors.New("no result")

type Lookup struct {
	Topic string
	Link  string
	Found bool
}

func Miss(topic string) Lookup {
	return Lookup{Topic: topic}
}

func Hit(topic, link string) Lookup {
	link = strings.TrimSpace(link)
	if link == "" {
		return Miss(topic)
	}
	return Lookup{Topic: topic, Link: link, Found: true}
}

// ArticleURL builds the stable page-id link, e.g. https://en.wikipedia.org/?curid=42.
func ArticleURL(base string, pageID int64) (string, error) {
	if pageID <= 0 {
		return "", fmt.Errorf("%w: invalid page id %d", ErrNoResult, pageID)
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse article base: %w", err)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.RawQuery = url.Values{"curid": []string{strconv.FormatInt(pageID, 10)}}.Encode()
	return u.String(), nil
}
