package content

// Ledger holds one append-only collection per content type. Slots are dense
// and zero-indexed; `index < len(collection)` is the sole existence test.
// Deletion tombstones a slot in place so index-based references held by other
// records (the reply graph) stay valid forever.
type Ledger struct {
	collections [NumTypes][]Record
}

// NewLedger constructs an empty ledger with all collections allocated.
func NewLedger() *Ledger {
	return &Ledger{}
}

func (l *Ledger) slot(id Identifier) (*Record, error) {
	if !id.Type.Valid() {
		return nil, ErrInvalidType
	}
	coll := l.collections[id.Type]
	if id.Index >= uint64(len(coll)) {
		return nil, ErrNotFound
	}
	return &coll[id.Index], nil
}

// Create appends the record to its type's collection and returns the freshly
// assigned identifier. Indices are strictly increasing and never reused.
func (l *Ledger) Create(record Record, contentType ContentType) (Identifier, error) {
	if !contentType.Valid() {
		return Identifier{}, ErrInvalidType
	}
	l.collections[contentType] = append(l.collections[contentType], record.Clone())
	return Identifier{Type: contentType, Index: uint64(len(l.collections[contentType]) - 1)}, nil
}

// Get returns a copy of the record named by id.
func (l *Ledger) Get(id Identifier) (Record, error) {
	slot, err := l.slot(id)
	if err != nil {
		return Record{}, err
	}
	return slot.Clone(), nil
}

// Update overwrites the whole slot. Partial patches are the caller's job:
// read, mutate, write back.
func (l *Ledger) Update(id Identifier, record Record) error {
	slot, err := l.slot(id)
	if err != nil {
		return err
	}
	*slot = record.Clone()
	return nil
}

// Delete tombstones the slot in place. The collection never shrinks and the
// index is never reassigned.
func (l *Ledger) Delete(id Identifier) error {
	slot, err := l.slot(id)
	if err != nil {
		return err
	}
	*slot = Record{}
	return nil
}

// Link records that reply answers target. Both directions of the edge are
// appended in the same call so the graph stays symmetric by construction.
func (l *Ledger) Link(reply, target Identifier) error {
	replySlot, err := l.slot(reply)
	if err != nil {
		return err
	}
	targetSlot, err := l.slot(target)
	if err != nil {
		return err
	}
	replySlot.RepliesTo = append(replySlot.RepliesTo, target)
	targetSlot.RepliedBy = append(targetSlot.RepliedBy, reply)
	return nil
}

// RepliesOf returns the identifiers the record replies to, in insertion order.
func (l *Ledger) RepliesOf(id Identifier) ([]Identifier, error) {
	slot, err := l.slot(id)
	if err != nil {
		return nil, err
	}
	return append([]Identifier(nil), slot.RepliesTo...), nil
}

// RepliedByOf returns the identifiers that reply to the record, in insertion order.
func (l *Ledger) RepliedByOf(id Identifier) ([]Identifier, error) {
	slot, err := l.slot(id)
	if err != nil {
		return nil, err
	}
	return append([]Identifier(nil), slot.RepliedBy...), nil
}

// Length reports how many slots the type's collection has ever allocated,
// tombstones included.
func (l *Ledger) Length(contentType ContentType) (uint64, error) {
	if !contentType.Valid() {
		return 0, ErrInvalidType
	}
	return uint64(len(l.collections[contentType])), nil
}

// Export returns a deep copy of every collection for snapshotting.
func (l *Ledger) Export() [NumTypes][]Record {
	var out [NumTypes][]Record
	for t, coll := range l.collections {
		if len(coll) == 0 {
			continue
		}
		out[t] = make([]Record, len(coll))
		for i, rec := range coll {
			out[t][i] = rec.Clone()
		}
	}
	return out
}

// Restore replaces the ledger contents with the supplied collections.
func (l *Ledger) Restore(collections [NumTypes][]Record) {
	for t := range l.collections {
		coll := collections[t]
		if len(coll) == 0 {
			l.collections[t] = nil
			continue
		}
		restored := make([]Record, len(coll))
		for i, rec := range coll {
			restored[i] = rec.Clone()
		}
		l.collections[t] = restored
	}
}
