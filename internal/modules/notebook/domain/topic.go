package domain

import (
	"fmt"
	"strings"
	"unicode/utf8"

	apperrors "notebook/internal/platform/errors"
)

type UpsertPolicy string

const (
	// PolicyOverwrite replaces an existing link when the new one differs.
	PolicyOverwrite UpsertPolicy = "overwrite"
	// PolicySkip never changes a link once one is stored.
	PolicySkip UpsertPolicy = "skip"
)

type UpsertOutcome string

const (
	OutcomeCreated        UpsertOutcome = "created"
	OutcomeUpdated        UpsertOutcome = "updated"
	OutcomeAlreadyPresent UpsertOutcome = "already_present"
)

type Topic struct {
	Name string `json:"name"`
	Link string `json:"link,omitempty"`
}

// HasLink reports whether the topic carries a usable link. Blank text counts as absent.
func (t Topic) HasLink() bool {
	return strings.TrimSpace(t.Link) != ""
}

type UpsertResult struct {
	Outcome UpsertOutcome `json:"outcome"`
	Link    string        `json:"link"`
}

func (p UpsertPolicy) Validate() error {
	switch p {
	case PolicyOverwrite, PolicySkip:
		return nil
	default:
		return fmt.Errorf("%w: unsupported upsert policy %q", apperrors.ErrInvalidInput, string(p))
	}
}

// NormalizeName trims surrounding whitespace and rejects empty names and names that no backend
// can store verbatim.
func NormalizeName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("%w: topic name must not be empty", apperrors.ErrInvalidInput)
	}
	if err := CheckText("topic name", name); err != nil {
		return "", err
	}
	return name, nil
}

func ValidateUpsert(name, link string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: topic name must not be empty", apperrors.ErrInvalidInput)
	}
	if strings.TrimSpace(link) == "" {
		return fmt.Errorf("%w: link must not be empty", apperrors.ErrInvalidInput)
	}
	if err := CheckText("topic name", name); err != nil {
		return err
	}
	return CheckText("link", link)
}

// CheckText rejects invalid UTF-8 and runes outside the XML 1.0 character range. Such text would
// be rewritten as U+FFFD on the way to disk and no longer match itself after a reload.
func CheckText(field, s string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%w: %s is not valid UTF-8", apperrors.ErrInvalidInput, field)
	}
	for _, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("%w: %s contains unsupported character %U", apperrors.ErrInvalidInput, field, r)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	switch {
	case r == 0x09 || r == 0x0A || r == 0x0D:
		return true
	case r >= 0x20 && r <= 0xD7FF:
		return true
	case r >= 0xE000 && r <= 0xFFFD:
		return true
	case r >= 0x10000 && r <= 0x10FFFF:
		return true
	default:
		return false
	}
}

// Decide computes what an upsert of link does to existing under policy. It reports the result
// and whether the stored link changes. Links are compared and stored trimmed.
func Decide(existing Topic, found bool, link string, policy UpsertPolicy) (UpsertResult, bool) {
	link = strings.TrimSpace(link)
	switch {
	case !found:
		return UpsertResult{Outcome: OutcomeCreated, Link: link}, true
	case !existing.HasLink():
		return UpsertResult{Outcome: OutcomeUpdated, Link: link}, true
	case policy == PolicySkip || strings.TrimSpace(existing.Link) == link:
		return UpsertResult{Outcome: OutcomeAlreadyPresent, Link: strings.TrimSpace(existing.Link)}, false
	default:
		return UpsertResult{Outcome: OutcomeUpdated, Link: link}, true
	}
}
