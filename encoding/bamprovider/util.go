package bamprovider

import (
	"github.com/grailbio/base/errors"
	"github.com/grailbio/hts/sam"
)

// RefByName finds a sam.Reference with the given name. It returns nil if a
// reference is not found.
func RefByName(h *sam.Header, refName string) *sam.Reference {
	for _, ref := range h.Refs() {
		if ref.Name() == refName {
			return ref
		}
	}
	return nil
}

// ResolveRef is RefByName on p's header, with an errors.NotExist error for
// names absent from the header.
func ResolveRef(p Provider, refName string) (*sam.Reference, error) {
	h, err := p.GetHeader()
	if err != nil {
		return nil, err
	}
	ref := RefByName(h, refName)
	if ref == nil {
		return nil, errors.E(errors.NotExist, "bamprovider: reference", refName, "not found in BAM header")
	}
	return ref, nil
}

// NewRefIterator creates an iterator for the half-open window [refName:start,
// refName:end).  Start and end are both base zero.  The iterator yields the
// reads whose footprint intersects the window.
func NewRefIterator(p Provider, refName string, start, end int) Iterator {
	ref, err := ResolveRef(p, refName)
	if err != nil {
		return NewErrorIterator(err)
	}
	return p.NewIterator(ref, start, end)
}

// footprintEnd returns the end of r's footprint on its reference.  Records
// that consume no reference bases (unmapped-but-placed reads, or CIGARs of
// only insertions/clips) still occupy their Pos.
func footprintEnd(r *sam.Record) int {
	end := r.End()
	if end <= r.Pos {
		end = r.Pos + 1
	}
	return end
}

// overlaps reports whether r lies on ref and its footprint intersects
// [start, end).
func overlaps(r *sam.Record, refID, start, end int) bool {
	return r.Ref.ID() == refID && r.Pos < end && footprintEnd(r) > start
}
