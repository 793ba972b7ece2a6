package domain

// Collection is the in-memory form of a topic document, in first-seen order.
type Collection struct {
	Topics []Topic
}

func NewCollection(topics ...Topic) Collection {
	c := Collection{Topics: make([]Topic, 0, len(topics))}
	for _, t := range topics {
		c.merge(t)
	}
	return c
}

func (c Collection) Len() int {
	return len(c.Topics)
}

func (c Collection) Find(name string) (Topic, bool) {
	if i := c.index(name); i >= 0 {
		return c.Topics[i], true
	}
	return Topic{}, false
}

// Upsert applies link to the named topic under policy. The returned bool is true when the
// collection changed and needs to be persisted.
func (c *Collection) Upsert(name, link string, policy UpsertPolicy) (UpsertResult, bool) {
	i := c.index(name)
	existing := Topic{}
	if i >= 0 {
		existing = c.Topics[i]
	}
	result, mutated := Decide(existing, i >= 0, link, policy)
	if !mutated {
		return result, false
	}
	if i < 0 {
		c.Topics = append(c.Topics, Topic{Name: name, Link: result.Link})
	} else {
		c.Topics[i].Link = result.Link
	}
	return result, true
}

// Snapshot returns a copy safe to hand to callers.
func (c Collection) Snapshot() []Topic {
	out := make([]Topic, len(c.Topics))
	copy(out, c.Topics)
	return out
}

// merge keeps the first position of a name and lets the last non-blank link win.
func (c *Collection) merge(t Topic) {
	if i := c.index(t.Name); i >= 0 {
		if t.HasLink() {
			c.Topics[i].Link = t.Link
		}
		return
	}
	c.Topics = append(c.Topics, t)
}

func (c Collection) index(name string) int {
	for i := range c.Topics {
		if c.Topics[i].Name == name {
			return i
		}
	}
	return -1
}
