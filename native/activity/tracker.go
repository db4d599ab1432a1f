// Package activity approximates monthly active users and keeps per-account
// platform profiles. The MAU histogram holds one counter per elapsed 30-day
// period since genesis; an account is counted at most once per period by
// comparing its own last-seen timestamp against the open period's start, so
// no per-period account set is ever materialized.
package activity

import (
	"crowdledger/core/types"
	"crowdledger/native/economics"
)

// PeriodSeconds is the length of one MAU bucket.
const PeriodSeconds int64 = 30 * 24 * 60 * 60

// Profile is the per-account platform record. It is created implicitly with
// zero values on first read and never deleted.
type Profile struct {
	LatestInteraction int64      `json:"latestInteraction"`
	MetadataHash      types.Hash `json:"metadataHash"`
	Username          string     `json:"username,omitempty"`
	Strikes           uint64     `json:"strikes"`
}

// Tracker owns the profile store, the username registry and the MAU
// histogram. It does no locking of its own; the platform engine serializes
// all access behind its workflow mutex.
type Tracker struct {
	genesis   int64
	profiles  map[types.Address]*Profile
	usernames map[string]types.Address
	histogram []uint64
}

// NewTracker constructs a tracker anchored at the supplied genesis timestamp.
// Genesis is explicit configuration, not ambient state: every period boundary
// derives from it.
func NewTracker(genesis int64) *Tracker {
	return &Tracker{
		genesis:   genesis,
		profiles:  make(map[types.Address]*Profile),
		usernames: make(map[string]types.Address),
	}
}

// Genesis returns the configured network genesis timestamp.
func (t *Tracker) Genesis() int64 { return t.genesis }

func (t *Tracker) ensure(addr types.Address) *Profile {
	prof, ok := t.profiles[addr]
	if !ok {
		prof = &Profile{}
		t.profiles[addr] = prof
	}
	return prof
}

// Profile returns a copy of the account's profile, zero-valued if the account
// has never been seen.
func (t *Tracker) Profile(addr types.Address) Profile {
	if prof, ok := t.profiles[addr]; ok {
		return *prof
	}
	return Profile{}
}

// CurrentPeriodMAU returns the trailing fully-closed period's count. The
// still-open period is deliberately excluded so a mid-period burst can
// neither inflate nor understate pricing; only during the bootstrap period
// (a single open bucket) is that bucket itself used.
func (t *Tracker) CurrentPeriodMAU() uint64 {
	switch n := len(t.histogram); {
	case n >= 2:
		return t.histogram[n-2]
	case n == 1:
		return t.histogram[0]
	default:
		return 0
	}
}

// HistoricMAU returns the counter for one elapsed period.
func (t *Tracker) HistoricMAU(period uint64) (uint64, error) {
	if period >= uint64(len(t.histogram)) {
		return 0, ErrPeriodOutOfRange
	}
	return t.histogram[period], nil
}

// Histogram returns a copy of every recorded period counter.
func (t *Tracker) Histogram() []uint64 {
	return append([]uint64(nil), t.histogram...)
}

// LogInteraction records that the account touched the platform at the given
// time. Periods with no interactions are back-filled with zero so the
// histogram never has holes; the account increments the open bucket at most
// once per period.
func (t *Tracker) LogInteraction(addr types.Address, now int64) error {
	if now < t.genesis {
		return ErrBeforeGenesis
	}
	elapsed := (now - t.genesis) / PeriodSeconds

	for int64(len(t.histogram)) < elapsed {
		t.histogram = append(t.histogram, 0)
	}

	prof := t.ensure(addr)
	if elapsed+1 > int64(len(t.histogram)) {
		// This interaction opens a brand-new period and is
		// unconditionally its first counted activity.
		t.histogram = append(t.histogram, 1)
	} else {
		openStart := t.genesis + PeriodSeconds*int64(len(t.histogram)-1)
		if prof.LatestInteraction == 0 || prof.LatestInteraction < openStart {
			t.histogram[len(t.histogram)-1]++
		}
	}
	prof.LatestInteraction = now
	return nil
}

// AddStrike increments the account's strike counter and returns the new count.
func (t *Tracker) AddStrike(addr types.Address) uint64 {
	prof := t.ensure(addr)
	prof.Strikes++
	return prof.Strikes
}

// RegisterUsername permanently binds the name to the account. An account may
// claim at most one name ever and a claimed name is never released.
func (t *Tracker) RegisterUsername(addr types.Address, name string) error {
	if err := economics.ValidateUsername(name); err != nil {
		return err
	}
	canonical := economics.CanonicalUsername(name)
	if t.ensure(addr).Username != "" {
		return ErrAlreadyRegistered
	}
	if _, taken := t.usernames[canonical]; taken {
		return ErrAlreadyRegistered
	}
	t.profiles[addr].Username = canonical
	t.usernames[canonical] = addr
	return nil
}

// UsernameOwner resolves a registered name to its owning account.
func (t *Tracker) UsernameOwner(name string) (types.Address, bool) {
	addr, ok := t.usernames[economics.CanonicalUsername(name)]
	return addr, ok
}

// SetMetadata overwrites the account's metadata digest. The zero hash clears it.
func (t *Tracker) SetMetadata(addr types.Address, hash types.Hash) {
	t.ensure(addr).MetadataHash = hash
}

// Export returns a deep copy of the profile store and histogram for
// snapshotting. The username registry is derivable from the profiles and is
// rebuilt on Restore.
func (t *Tracker) Export() (map[types.Address]Profile, []uint64) {
	profiles := make(map[types.Address]Profile, len(t.profiles))
	for addr, prof := range t.profiles {
		profiles[addr] = *prof
	}
	return profiles, t.Histogram()
}

// Restore replaces the tracker contents with a previously exported snapshot.
func (t *Tracker) Restore(profiles map[types.Address]Profile, histogram []uint64) {
	t.profiles = make(map[types.Address]*Profile, len(profiles))
	t.usernames = make(map[string]types.Address, len(profiles))
	for addr, prof := range profiles {
		clone := prof
		t.profiles[addr] = &clone
		if clone.Username != "" {
			t.usernames[clone.Username] = addr
		}
	}
	t.histogram = append([]uint64(nil), histogram...)
}
