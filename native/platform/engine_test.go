package platform

import (
	"errors"
	"math/big"
	"sync"
	"testing"

	"crowdledger/core/events"
	"crowdledger/core/types"
	"crowdledger/native/activity"
	"crowdledger/native/content"
	"crowdledger/native/economics"
	"crowdledger/native/token"
)

const genesis int64 = 1_700_000_000

type recordingEmitter struct {
	events []events.Event
}

func (r *recordingEmitter) Emit(evt events.Event) {
	r.events = append(r.events, evt)
}

func (r *recordingEmitter) last(t *testing.T) *types.Event {
	t.Helper()
	if len(r.events) == 0 {
		t.Fatal("no events emitted")
	}
	env, ok := r.events[len(r.events)-1].(interface{ Event() *types.Event })
	if !ok {
		t.Fatalf("unexpected event envelope %T", r.events[len(r.events)-1])
	}
	return env.Event()
}

type harness struct {
	engine  *Engine
	ledger  *content.Ledger
	tracker *activity.Tracker
	token   *token.MemoryLedger
	emitter *recordingEmitter
	vault   types.Address
	admin   types.Address
	now     int64
}

func addr(b byte) types.Address {
	var a types.Address
	a[19] = b
	return a
}

func hash(b byte) types.Hash {
	var h types.Hash
	h[31] = b
	return h
}

func newHarness() *harness {
	h := &harness{
		ledger:  content.NewLedger(),
		tracker: activity.NewTracker(genesis),
		vault:   addr(0xfe),
		admin:   addr(0xad),
		now:     genesis + 100,
	}
	h.token = token.NewMemoryLedger(h.vault)
	h.emitter = &recordingEmitter{}
	h.engine = NewEngine(h.ledger, h.tracker, h.token)
	h.engine.SetEmitter(h.emitter)
	h.engine.SetNowFunc(func() int64 { return h.now })
	h.engine.SetAdmin(h.admin)
	h.engine.SetFeeVault(h.vault)
	return h
}

// fund gives the account enough balance and allowance to cover any fee in
// these tests.
func (h *harness) fund(t *testing.T, account types.Address) {
	t.Helper()
	plenty, _ := new(big.Int).SetString("1000000000000000000000000", 10)
	if err := h.token.Mint(account, plenty); err != nil {
		t.Fatalf("mint: %v", err)
	}
	if err := h.token.Approve(account, h.vault, plenty); err != nil {
		t.Fatalf("approve: %v", err)
	}
}

func (h *harness) upload(t *testing.T, owner types.Address) content.Identifier {
	t.Helper()
	id, err := h.engine.Upload(owner, hash(1), hash(2), content.TypePost)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	return id
}

// votes stamps raw vote counters onto a record, bypassing per-vote fees.
func (h *harness) votes(t *testing.T, id content.Identifier, likes, dislikes uint64) {
	t.Helper()
	rec, err := h.ledger.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	rec.Likes = likes
	rec.Dislikes = dislikes
	if err := h.ledger.Update(id, rec); err != nil {
		t.Fatalf("update: %v", err)
	}
}

func TestUploadWithoutStrikesIsFree(t *testing.T) {
	h := newHarness()
	creator := addr(1)

	id := h.upload(t, creator)
	if id.Type != content.TypePost || id.Index != 0 {
		t.Fatalf("unexpected identifier %+v", id)
	}
	rec, err := h.ledger.Get(id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if rec.Owner != creator || rec.ContentHash != hash(1) || rec.MetadataHash != hash(2) {
		t.Fatalf("record mismatch: %+v", rec)
	}
	if mau := h.engine.CurrentPeriodMAU(); mau != 1 {
		t.Fatalf("bootstrap MAU = %d, want 1", mau)
	}
	evt := h.emitter.last(t)
	if evt.Type != EventTypeUploaded {
		t.Fatalf("event type = %s", evt.Type)
	}
	if evt.Attributes["creator"] != creator.Hex() || evt.Attributes["index"] != "0" || evt.Attributes["type"] != "post" {
		t.Fatalf("event attributes: %+v", evt.Attributes)
	}
}

func TestUploadWithStrikesChargesEscalatedFee(t *testing.T) {
	h := newHarness()
	offender := addr(1)
	h.upload(t, offender) // bootstrap MAU = 1
	h.tracker.AddStrike(offender)
	h.tracker.AddStrike(offender)

	// Unaffordable: the whole workflow aborts with no state change.
	before, _ := h.ledger.Length(content.TypePost)
	if _, err := h.engine.Upload(offender, hash(3), hash(4), content.TypePost); !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	after, _ := h.ledger.Length(content.TypePost)
	if before != after {
		t.Fatalf("failed upload mutated the ledger: %d -> %d", before, after)
	}

	h.fund(t, offender)
	if _, err := h.engine.Upload(offender, hash(3), hash(4), content.TypePost); err != nil {
		t.Fatalf("upload: %v", err)
	}
	want, err := economics.FeeForStrikes(2, 1)
	if err != nil {
		t.Fatalf("feeForStrikes: %v", err)
	}
	vaultBalance, _ := h.token.BalanceOf(h.vault)
	if vaultBalance.Cmp(want.ToBig()) != 0 {
		t.Fatalf("vault holds %s, want %s", vaultBalance, want.ToBig())
	}
}

func TestVoteChargesFeeAndCounts(t *testing.T) {
	h := newHarness()
	creator, voter := addr(1), addr(2)
	id := h.upload(t, creator)

	// Broke voter: no vote recorded, no interaction logged.
	if err := h.engine.Like(voter, id); !errors.Is(err, token.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}
	rec, _ := h.ledger.Get(id)
	if rec.Likes != 0 {
		t.Fatalf("failed like mutated the record: %+v", rec)
	}
	if prof := h.tracker.Profile(voter); prof.LatestInteraction != 0 {
		t.Fatalf("failed like logged an interaction: %+v", prof)
	}

	h.fund(t, voter)
	if err := h.engine.Like(voter, id); err != nil {
		t.Fatalf("like: %v", err)
	}
	if err := h.engine.Dislike(voter, id); err != nil {
		t.Fatalf("dislike: %v", err)
	}
	rec, _ = h.ledger.Get(id)
	if rec.Likes != 1 || rec.Dislikes != 1 {
		t.Fatalf("vote counters: %+v", rec)
	}
	// The like was priced at the bootstrap MAU of 1; by the dislike the
	// voter itself had been counted, so MAU was 2.
	likeFee, _ := economics.Fee(1)
	dislikeFee, _ := economics.Fee(2)
	wantVault := new(big.Int).Add(likeFee.ToBig(), dislikeFee.ToBig())
	vaultBalance, _ := h.token.BalanceOf(h.vault)
	if vaultBalance.Cmp(wantVault) != 0 {
		t.Fatalf("vault holds %s, want %s", vaultBalance, wantVault)
	}
	if evt := h.emitter.last(t); evt.Type != EventTypeDisliked {
		t.Fatalf("event type = %s", evt.Type)
	}
}

func TestVoteOnMissingContent(t *testing.T) {
	h := newHarness()
	voter := addr(2)
	h.fund(t, voter)
	missing := content.Identifier{Type: content.TypePost, Index: 7}
	if err := h.engine.Like(voter, missing); !errors.Is(err, content.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	// The precondition failed before settlement: nothing was charged.
	vaultBalance, _ := h.token.BalanceOf(h.vault)
	if vaultBalance.Sign() != 0 {
		t.Fatalf("fee charged for a failed workflow: %s", vaultBalance)
	}
}

func TestHarvestLikes(t *testing.T) {
	h := newHarness()
	creator := addr(1)
	id := h.upload(t, creator)
	h.votes(t, id, 5, 1)

	balanceBefore, _ := h.token.BalanceOf(creator)
	amount, err := h.engine.HarvestLikes(creator, id)
	if err != nil {
		t.Fatalf("harvest: %v", err)
	}
	reward, _ := economics.Reward(1)
	want := new(big.Int).Mul(reward.ToBig(), big.NewInt(4))
	if amount.Cmp(want) != 0 {
		t.Fatalf("harvested %s, want %s", amount, want)
	}
	balanceAfter, _ := h.token.BalanceOf(creator)
	if new(big.Int).Sub(balanceAfter, balanceBefore).Cmp(want) != 0 {
		t.Fatalf("owner not credited: %s -> %s", balanceBefore, balanceAfter)
	}
	rec, _ := h.ledger.Get(id)
	if rec.HarvestedLikes != 4 {
		t.Fatalf("harvestedLikes = %d, want 4", rec.HarvestedLikes)
	}
	evt := h.emitter.last(t)
	if evt.Type != EventTypeHarvested || evt.Attributes["amount"] != want.String() {
		t.Fatalf("event: %+v", evt)
	}

	// Nothing new to harvest until more net likes arrive.
	if _, err := h.engine.HarvestLikes(creator, id); !errors.Is(err, ErrNoLikesToHarvest) {
		t.Fatalf("expected ErrNoLikesToHarvest, got %v", err)
	}
}

func TestHarvestRequiresNetLikes(t *testing.T) {
	h := newHarness()
	id := h.upload(t, addr(1))
	h.votes(t, id, 2, 3)
	if _, err := h.engine.HarvestLikes(addr(1), id); !errors.Is(err, ErrNoLikesToHarvest) {
		t.Fatalf("expected ErrNoLikesToHarvest, got %v", err)
	}
}

func TestHarvestAllowedBelowQuorum(t *testing.T) {
	h := newHarness()
	id := h.upload(t, addr(1))
	// Too few votes to evaluate the elimination test; that is treated as
	// "not flagged" and the harvest proceeds.
	h.votes(t, id, 3, 1)
	if _, err := h.engine.HarvestLikes(addr(1), id); err != nil {
		t.Fatalf("quorum-short content should harvest: %v", err)
	}
}

func TestModerationDelete(t *testing.T) {
	h := newHarness()
	owner, janitor := addr(1), addr(2)
	id := h.upload(t, owner)

	// Not enough votes to evaluate the test at all.
	h.votes(t, id, 2, 3)
	if err := h.engine.Delete(janitor, id); !errors.Is(err, economics.ErrQuorumNotMet) {
		t.Fatalf("expected ErrQuorumNotMet, got %v", err)
	}

	// Quorum met but statistically inconclusive.
	h.votes(t, id, 3, 3)
	if err := h.engine.Delete(janitor, id); !errors.Is(err, ErrNotEliminable) {
		t.Fatalf("expected ErrNotEliminable, got %v", err)
	}

	// Overwhelming disapproval: tombstone and strike the owner.
	h.votes(t, id, 1, 9)
	if err := h.engine.Delete(janitor, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	rec, err := h.ledger.Get(id)
	if err != nil {
		t.Fatalf("get tombstone: %v", err)
	}
	if !rec.Tombstoned() {
		t.Fatalf("record not tombstoned: %+v", rec)
	}
	if prof := h.tracker.Profile(owner); prof.Strikes != 1 {
		t.Fatalf("owner strikes = %d, want 1", prof.Strikes)
	}
	evt := h.emitter.last(t)
	if evt.Type != EventTypeDeleted {
		t.Fatalf("event type = %s", evt.Type)
	}
	if evt.Attributes["owner"] != owner.Hex() || evt.Attributes["contentHash"] != hash(1).Hex() {
		t.Fatalf("event attributes: %+v", evt.Attributes)
	}
}

func TestVoluntarilyDeleteOwnerOnly(t *testing.T) {
	h := newHarness()
	owner, stranger := addr(1), addr(2)
	id := h.upload(t, owner)

	if err := h.engine.VoluntarilyDelete(stranger, id); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := h.engine.VoluntarilyDelete(owner, id); err != nil {
		t.Fatalf("voluntary delete: %v", err)
	}
	rec, _ := h.ledger.Get(id)
	if !rec.Tombstoned() {
		t.Fatalf("record not tombstoned: %+v", rec)
	}
	// No strike for walking away voluntarily.
	if prof := h.tracker.Profile(owner); prof.Strikes != 0 {
		t.Fatalf("voluntary delete added a strike: %+v", prof)
	}
}

func TestReplyOwnerOnly(t *testing.T) {
	h := newHarness()
	owner, stranger := addr(1), addr(2)
	target := h.upload(t, owner)
	reply, err := h.engine.Upload(stranger, hash(5), hash(6), content.TypeComment)
	if err != nil {
		t.Fatalf("upload reply: %v", err)
	}

	if err := h.engine.Reply(owner, reply, target); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if err := h.engine.Reply(stranger, reply, target); err != nil {
		t.Fatalf("reply: %v", err)
	}
	replies, _ := h.engine.GetRepliesOf(reply)
	if len(replies) != 1 || replies[0] != target {
		t.Fatalf("forward edge: %+v", replies)
	}
	backs, _ := h.engine.GetRepliedBy(target)
	if len(backs) != 1 || backs[0] != reply {
		t.Fatalf("reverse edge: %+v", backs)
	}
	evt := h.emitter.last(t)
	if evt.Type != EventTypeReplied || evt.Attributes["replyType"] != "comment" || evt.Attributes["targetIndex"] != "0" {
		t.Fatalf("event: %+v", evt)
	}
}

func TestWithdraw(t *testing.T) {
	h := newHarness()
	stranger := addr(9)

	if _, err := h.engine.Withdraw(stranger); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := h.engine.Withdraw(h.admin); !errors.Is(err, ErrNothingToWithdraw) {
		t.Fatalf("expected ErrNothingToWithdraw, got %v", err)
	}

	// Accrue some fees, then sweep the lot.
	voter := addr(2)
	id := h.upload(t, addr(1))
	h.fund(t, voter)
	if err := h.engine.Like(voter, id); err != nil {
		t.Fatalf("like: %v", err)
	}
	vaultBalance, _ := h.token.BalanceOf(h.vault)
	swept, err := h.engine.Withdraw(h.admin)
	if err != nil {
		t.Fatalf("withdraw: %v", err)
	}
	if swept.Cmp(vaultBalance) != 0 {
		t.Fatalf("swept %s, vault held %s", swept, vaultBalance)
	}
	adminBalance, _ := h.token.BalanceOf(h.admin)
	if adminBalance.Cmp(vaultBalance) != 0 {
		t.Fatalf("admin credited %s, want %s", adminBalance, vaultBalance)
	}
	remaining, _ := h.token.BalanceOf(h.vault)
	if remaining.Sign() != 0 {
		t.Fatalf("vault not emptied: %s", remaining)
	}
}

func TestCreateUserAndUpdateMetadata(t *testing.T) {
	h := newHarness()
	user := addr(1)

	if err := h.engine.CreateUser(user, "ab_1", hash(7)); err != nil {
		t.Fatalf("createUser: %v", err)
	}
	prof := h.engine.GetProfile(user)
	if prof.Username != "ab_1" || prof.MetadataHash != hash(7) {
		t.Fatalf("profile: %+v", prof)
	}
	owner, ok := h.engine.GetUsernameOwner("ab_1")
	if !ok || owner != user {
		t.Fatalf("owner lookup: %v %v", owner, ok)
	}
	if err := h.engine.CreateUser(user, "other_name", hash(8)); !errors.Is(err, activity.ErrAlreadyRegistered) {
		t.Fatalf("expected ErrAlreadyRegistered, got %v", err)
	}
	// A failed registration changes nothing.
	if prof := h.engine.GetProfile(user); prof.MetadataHash != hash(7) {
		t.Fatalf("failed createUser overwrote metadata: %+v", prof)
	}

	if err := h.engine.UpdateMetadata(user, hash(9)); err != nil {
		t.Fatalf("updateMetadata: %v", err)
	}
	if prof := h.engine.GetProfile(user); prof.MetadataHash != hash(9) {
		t.Fatalf("metadata not updated: %+v", prof)
	}
}

func TestConcurrentWorkflowsAndSnapshots(t *testing.T) {
	h := newHarness()
	const uploaders = 32

	var wg sync.WaitGroup
	done := make(chan struct{})
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			err := h.engine.Snapshot(func(l *content.Ledger, tr *activity.Tracker) error {
				// Walk the same structures a persisted snapshot would.
				tr.Export()
				l.Export()
				return nil
			})
			if err != nil {
				t.Errorf("snapshot: %v", err)
				return
			}
		}
	}()

	var uploads sync.WaitGroup
	for b := byte(1); b <= uploaders; b++ {
		uploads.Add(1)
		go func(creator types.Address) {
			defer uploads.Done()
			if _, err := h.engine.Upload(creator, hash(1), hash(2), content.TypePost); err != nil {
				t.Errorf("upload: %v", err)
			}
		}(addr(b))
	}
	uploads.Wait()
	close(done)
	wg.Wait()

	length, err := h.engine.GetContentLibraryLength(content.TypePost)
	if err != nil {
		t.Fatalf("length: %v", err)
	}
	if length != uploaders {
		t.Fatalf("library length = %d, want %d", length, uploaders)
	}
	if mau := h.engine.CurrentPeriodMAU(); mau != uploaders {
		t.Fatalf("MAU = %d, want %d", mau, uploaders)
	}
}

func TestMAUDrivenPricingAcrossPeriods(t *testing.T) {
	h := newHarness()
	creator := addr(1)
	id := h.upload(t, creator)
	// Two more accounts interact in the bootstrap period.
	for b := byte(2); b <= 3; b++ {
		voter := addr(b)
		h.fund(t, voter)
		if err := h.engine.Like(voter, id); err != nil {
			t.Fatalf("like: %v", err)
		}
	}
	// Advance into the next period; pricing now uses the closed bucket.
	h.now = genesis + activity.PeriodSeconds + 100
	voter := addr(4)
	h.fund(t, voter)
	if err := h.engine.Like(voter, id); err != nil {
		t.Fatalf("like: %v", err)
	}
	if mau := h.engine.CurrentPeriodMAU(); mau != 3 {
		t.Fatalf("closed-period MAU = %d, want 3", mau)
	}
}
