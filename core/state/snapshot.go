// Package state persists the whole platform state as one versioned snapshot.
// Save must run while no workflow is in flight (the daemon routes it through
// the engine's Snapshot method), so the marshal of the content collections,
// profiles and MAU histogram is always internally consistent.
package state

import (
	"encoding/json"
	"errors"
	"fmt"

	"crowdledger/core/types"
	"crowdledger/native/activity"
	"crowdledger/native/content"
	"crowdledger/storage"
)

const snapshotVersion = 1

var snapshotKey = []byte("platform/state")

// ErrVersionMismatch is returned when a stored snapshot was written by an
// incompatible schema.
var ErrVersionMismatch = errors.New("state: snapshot schema version mismatch")

type snapshot struct {
	Version     uint32                             `json:"version"`
	Genesis     int64                              `json:"genesis"`
	Collections [content.NumTypes][]content.Record `json:"collections"`
	Profiles    map[types.Address]activity.Profile `json:"profiles"`
	Histogram   []uint64                           `json:"histogram"`
}

// Save marshals the ledger and tracker into the database.
func Save(db storage.Database, ledger *content.Ledger, tracker *activity.Tracker) error {
	profiles, histogram := tracker.Export()
	snap := snapshot{
		Version:     snapshotVersion,
		Genesis:     tracker.Genesis(),
		Collections: ledger.Export(),
		Profiles:    profiles,
		Histogram:   histogram,
	}
	encoded, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("state: encode snapshot: %w", err)
	}
	return db.Put(snapshotKey, encoded)
}

// Load restores the ledger and tracker from the database. When no snapshot
// exists yet, fresh state anchored at the supplied genesis is returned.
func Load(db storage.Database, genesis int64) (*content.Ledger, *activity.Tracker, error) {
	encoded, err := db.Get(snapshotKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return content.NewLedger(), activity.NewTracker(genesis), nil
	}
	if err != nil {
		return nil, nil, err
	}
	var snap snapshot
	if err := json.Unmarshal(encoded, &snap); err != nil {
		return nil, nil, fmt.Errorf("state: decode snapshot: %w", err)
	}
	if snap.Version != snapshotVersion {
		return nil, nil, ErrVersionMismatch
	}
	ledger := content.NewLedger()
	ledger.Restore(snap.Collections)
	tracker := activity.NewTracker(snap.Genesis)
	tracker.Restore(snap.Profiles, snap.Histogram)
	return ledger, tracker, nil
}
