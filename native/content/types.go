package content

import "crowdledger/core/types"

// ContentType partitions the ledger into independent collections. The set is
// fixed; identifiers embed the type so an index is only meaningful within its
// own collection.
type ContentType uint8

const (
	TypePost ContentType = iota
	TypeComment
	TypeArticle
	TypePhoto
	TypeVideo
	TypeAudio
	TypeStream
	TypePoll
	TypeLink
	TypeSnippet
	TypeDocument
	TypeReview
	TypeThread
	TypeRepost
	TypePage

	// NumTypes is the number of content collections maintained by the ledger.
	NumTypes = 15
)

var typeNames = [NumTypes]string{
	"post", "comment", "article", "photo", "video", "audio", "stream",
	"poll", "link", "snippet", "document", "review", "thread", "repost",
	"page",
}

// Valid reports whether the type names one of the ledger's collections.
func (t ContentType) Valid() bool { return uint8(t) < NumTypes }

func (t ContentType) String() string {
	if !t.Valid() {
		return "invalid"
	}
	return typeNames[t]
}

// ParseType resolves a collection name back to its ContentType.
func ParseType(name string) (ContentType, bool) {
	for i, n := range typeNames {
		if n == name {
			return ContentType(i), true
		}
	}
	return 0, false
}

// Identifier permanently names one content record. Identifiers are never
// reassigned, even after the record they name has been tombstoned.
type Identifier struct {
	Type  ContentType `json:"type"`
	Index uint64      `json:"index"`
}

// Record is one slot in a content collection. A tombstoned record has every
// field reset to its zero value but keeps its slot and index.
type Record struct {
	Owner          types.Address `json:"owner"`
	ContentHash    types.Hash    `json:"contentHash"`
	MetadataHash   types.Hash    `json:"metadataHash"`
	Likes          uint64        `json:"likes"`
	Dislikes       uint64        `json:"dislikes"`
	HarvestedLikes uint64        `json:"harvestedLikes"`
	RepliesTo      []Identifier  `json:"repliesTo,omitempty"`
	RepliedBy      []Identifier  `json:"repliedBy,omitempty"`
}

// Clone returns a deep copy of the record so callers cannot alias ledger
// internals through the reply slices.
func (r Record) Clone() Record {
	clone := r
	if len(r.RepliesTo) > 0 {
		clone.RepliesTo = append([]Identifier(nil), r.RepliesTo...)
	}
	if len(r.RepliedBy) > 0 {
		clone.RepliedBy = append([]Identifier(nil), r.RepliedBy...)
	}
	return clone
}

// Tombstoned reports whether the record slot has been cleared by a delete.
func (r Record) Tombstoned() bool {
	return r.Owner == (types.Address{}) &&
		r.ContentHash == types.ZeroHash &&
		r.MetadataHash == types.ZeroHash &&
		r.Likes == 0 && r.Dislikes == 0 && r.HarvestedLikes == 0 &&
		len(r.RepliesTo) == 0 && len(r.RepliedBy) == 0
}
