package proposals

import "errors"

var ErrNotFound = errors.New("proposal not found")

// Catalog is the read-only proposal source. The caller owns the data; the
// billing core never writes to it.
type Catalog interface {
	Lookup(id string) (*Proposal, error)
	All() []*Proposal
}

// StaticCatalog serves a fixed in-memory proposal list.
type StaticCatalog struct {
	items []*Proposal
}

func NewStaticCatalog(items []*Proposal) *StaticCatalog {
	return &StaticCatalog{items: items}
}

func (c *StaticCatalog) Lookup(id string) (*Proposal, error) {
	for _, p := range c.items {
		if p.ID == id {
			return p, nil
		}
	}
	return nil, ErrNotFound
}

func (c *StaticCatalog) All() []*Proposal {
	out := make([]*Proposal, len(c.items))
	copy(out, c.items)
	return out
}
