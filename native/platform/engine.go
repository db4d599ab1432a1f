// Package platform sequences the economics, activity, and content modules
// into the ledger's atomic workflows. The engine serializes every invocation
// behind one mutex, so atomicity is achieved by ordering: all fallible
// preconditions (existence, ownership, quorum, affordability) are evaluated
// before the single external settlement call, and the in-memory mutations
// that follow cannot fail. Callers never observe a partial workflow.
package platform

import (
	"errors"
	"math/big"
	"sync"
	"time"

	"github.com/holiman/uint256"

	"crowdledger/core/events"
	"crowdledger/core/types"
	"crowdledger/native/activity"
	"crowdledger/native/content"
	"crowdledger/native/economics"
	"crowdledger/native/token"
	"crowdledger/observability/metrics"
)

// Engine exposes the platform's workflows over injected collaborators.
// mu serializes every workflow and read accessor; the ledger, tracker and
// token maps are only ever touched while it is held.
type Engine struct {
	mu        sync.Mutex
	content   *content.Ledger
	activity  *activity.Tracker
	token     token.Ledger
	emitter   events.Emitter
	nowFn     func() int64
	admin     types.Address
	feeVault  types.Address
	telemetry *metrics.PlatformMetrics
}

// NewEngine wires the orchestrator with its collaborators.
func NewEngine(ledger *content.Ledger, tracker *activity.Tracker, tok token.Ledger) *Engine {
	return &Engine{
		content:   ledger,
		activity:  tracker,
		token:     tok,
		emitter:   events.NoopEmitter{},
		nowFn:     func() int64 { return time.Now().Unix() },
		telemetry: metrics.Platform(),
	}
}

// SetEmitter configures the event emitter used by the engine.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		e.emitter = events.NoopEmitter{}
		return
	}
	e.emitter = emitter
}

// SetNowFunc overrides the time source for deterministic testing.
func (e *Engine) SetNowFunc(now func() int64) {
	if now == nil {
		e.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	e.nowFn = now
}

// SetAdmin configures the administrator allowed to withdraw collected fees.
func (e *Engine) SetAdmin(addr types.Address) { e.admin = addr }

// SetFeeVault configures the account fees are collected into.
func (e *Engine) SetFeeVault(addr types.Address) { e.feeVault = addr }

func (e *Engine) configured() error {
	if e == nil || e.content == nil || e.activity == nil || e.token == nil {
		return ErrNotConfigured
	}
	return nil
}

func (e *Engine) emit(evt *types.Event) {
	if evt == nil || e.emitter == nil {
		return
	}
	e.emitter.Emit(WrapEvent(evt))
}

func (e *Engine) now() int64 {
	if e.nowFn == nil {
		return time.Now().Unix()
	}
	return e.nowFn()
}

func (e *Engine) observe(workflow string, err error) error {
	if err != nil {
		e.telemetry.ObserveFailure(workflow)
		return err
	}
	e.telemetry.ObserveWorkflow(workflow)
	e.telemetry.SetCurrentMAU(float64(e.activity.CurrentPeriodMAU()))
	return nil
}

// chargeFee settles the fee against the external token ledger. Balance and
// allowance are checked as explicit preconditions before debiting.
func (e *Engine) chargeFee(caller types.Address, fee *uint256.Int) error {
	amount := fee.ToBig()
	if amount.Sign() == 0 {
		return nil
	}
	balance, err := e.token.BalanceOf(caller)
	if err != nil {
		return err
	}
	if balance.Cmp(amount) < 0 {
		return token.ErrInsufficientBalance
	}
	allowed, err := e.token.Allowance(caller, e.feeVault)
	if err != nil {
		return err
	}
	if allowed.Cmp(amount) < 0 {
		return token.ErrInsufficientAllowance
	}
	if err := e.token.TransferFrom(caller, e.feeVault, amount); err != nil {
		return err
	}
	amountFloat, _ := new(big.Float).SetInt(amount).Float64()
	e.telemetry.ObserveFee(amountFloat)
	return nil
}

// Upload publishes new content. Accounts carrying strikes pay the escalated
// publishing fee before anything else happens.
func (e *Engine) Upload(caller types.Address, contentHash, metadataHash types.Hash, contentType content.ContentType) (content.Identifier, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	id, err := e.upload(caller, contentHash, metadataHash, contentType)
	return id, e.observe("upload", err)
}

func (e *Engine) upload(caller types.Address, contentHash, metadataHash types.Hash, contentType content.ContentType) (content.Identifier, error) {
	if err := e.configured(); err != nil {
		return content.Identifier{}, err
	}
	if !contentType.Valid() {
		return content.Identifier{}, content.ErrInvalidType
	}
	now := e.now()
	if now < e.activity.Genesis() {
		return content.Identifier{}, activity.ErrBeforeGenesis
	}
	if strikes := e.activity.Profile(caller).Strikes; strikes > 0 {
		fee, err := economics.FeeForStrikes(strikes, e.activity.CurrentPeriodMAU())
		if err != nil {
			return content.Identifier{}, err
		}
		if err := e.chargeFee(caller, fee); err != nil {
			return content.Identifier{}, err
		}
	}
	if err := e.activity.LogInteraction(caller, now); err != nil {
		return content.Identifier{}, err
	}
	id, err := e.content.Create(content.Record{
		Owner:        caller,
		ContentHash:  contentHash,
		MetadataHash: metadataHash,
	}, contentType)
	if err != nil {
		return content.Identifier{}, err
	}
	e.emit(UploadedEvent(caller.Hex(), id))
	return id, nil
}

// Like registers an approval vote after settling the per-action fee.
func (e *Engine) Like(caller types.Address, id content.Identifier) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.observe("like", e.vote(caller, id, true))
}

// Dislike registers a disapproval vote after settling the per-action fee.
func (e *Engine) Dislike(caller types.Address, id content.Identifier) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.observe("dislike", e.vote(caller, id, false))
}

func (e *Engine) vote(caller types.Address, id content.Identifier, like bool) error {
	if err := e.configured(); err != nil {
		return err
	}
	now := e.now()
	if now < e.activity.Genesis() {
		return activity.ErrBeforeGenesis
	}
	record, err := e.content.Get(id)
	if err != nil {
		return err
	}
	fee, err := economics.Fee(e.activity.CurrentPeriodMAU())
	if err != nil {
		return err
	}
	if err := e.chargeFee(caller, fee); err != nil {
		return err
	}
	if like {
		record.Likes++
	} else {
		record.Dislikes++
	}
	if err := e.content.Update(id, record); err != nil {
		return err
	}
	if err := e.activity.LogInteraction(caller, now); err != nil {
		return err
	}
	if like {
		e.emit(LikedEvent(id))
	} else {
		e.emit(DislikedEvent(id))
	}
	return nil
}

// HarvestLikes pays the record's owner for net likes that have not been
// rewarded yet. Content within reach of the elimination test cannot be
// harvested; a quorum too small to evaluate the test counts as not flagged.
func (e *Engine) HarvestLikes(caller types.Address, id content.Identifier) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	amount, err := e.harvestLikes(caller, id)
	return amount, e.observe("harvest", err)
}

func (e *Engine) harvestLikes(caller types.Address, id content.Identifier) (*big.Int, error) {
	if err := e.configured(); err != nil {
		return nil, err
	}
	now := e.now()
	if now < e.activity.Genesis() {
		return nil, activity.ErrBeforeGenesis
	}
	record, err := e.content.Get(id)
	if err != nil {
		return nil, err
	}
	if record.Likes <= record.Dislikes {
		return nil, ErrNoLikesToHarvest
	}
	flagged, err := economics.ShouldEliminate(record.Likes, record.Dislikes)
	if err != nil && !errors.Is(err, economics.ErrQuorumNotMet) {
		return nil, err
	}
	if flagged {
		return nil, ErrContentFlagged
	}
	if record.Likes <= record.Dislikes+record.HarvestedLikes {
		return nil, ErrNoLikesToHarvest
	}
	unharvested := record.Likes - record.Dislikes - record.HarvestedLikes
	reward, err := economics.Reward(e.activity.CurrentPeriodMAU())
	if err != nil {
		return nil, err
	}
	amount := new(uint256.Int).Mul(reward, uint256.NewInt(unharvested)).ToBig()
	if err := e.token.Mint(record.Owner, amount); err != nil {
		return nil, err
	}
	record.HarvestedLikes += unharvested
	if err := e.content.Update(id, record); err != nil {
		return nil, err
	}
	if err := e.activity.LogInteraction(caller, now); err != nil {
		return nil, err
	}
	e.emit(HarvestedEvent(id, amount.String()))
	return amount, nil
}

// Delete removes content the crowd has statistically disapproved of and
// strikes its owner. Anyone may trigger it once the elimination test passes.
func (e *Engine) Delete(caller types.Address, id content.Identifier) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.observe("delete", e.moderationDelete(caller, id))
}

func (e *Engine) moderationDelete(caller types.Address, id content.Identifier) error {
	if err := e.configured(); err != nil {
		return err
	}
	now := e.now()
	if now < e.activity.Genesis() {
		return activity.ErrBeforeGenesis
	}
	record, err := e.content.Get(id)
	if err != nil {
		return err
	}
	flagged, err := economics.ShouldEliminate(record.Likes, record.Dislikes)
	if err != nil {
		return err
	}
	if !flagged {
		return ErrNotEliminable
	}
	if err := e.content.Delete(id); err != nil {
		return err
	}
	e.activity.AddStrike(record.Owner)
	if err := e.activity.LogInteraction(caller, now); err != nil {
		return err
	}
	e.emit(DeletedEvent(record.Owner.Hex(), record.ContentHash.Hex(), record.MetadataHash.Hex(), id))
	return nil
}

// VoluntarilyDelete lets an owner tombstone their own record. No strike, no
// event beyond the tombstone itself.
func (e *Engine) VoluntarilyDelete(caller types.Address, id content.Identifier) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.observe("voluntary_delete", e.voluntarilyDelete(caller, id))
}

func (e *Engine) voluntarilyDelete(caller types.Address, id content.Identifier) error {
	if err := e.configured(); err != nil {
		return err
	}
	now := e.now()
	if now < e.activity.Genesis() {
		return activity.ErrBeforeGenesis
	}
	record, err := e.content.Get(id)
	if err != nil {
		return err
	}
	if record.Owner != caller {
		return ErrUnauthorized
	}
	if err := e.content.Delete(id); err != nil {
		return err
	}
	return e.activity.LogInteraction(caller, now)
}

// Reply links the caller's record as a reply to the target record.
func (e *Engine) Reply(caller types.Address, replyID, targetID content.Identifier) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.observe("reply", e.reply(caller, replyID, targetID))
}

func (e *Engine) reply(caller types.Address, replyID, targetID content.Identifier) error {
	if err := e.configured(); err != nil {
		return err
	}
	now := e.now()
	if now < e.activity.Genesis() {
		return activity.ErrBeforeGenesis
	}
	record, err := e.content.Get(replyID)
	if err != nil {
		return err
	}
	if record.Owner != caller {
		return ErrUnauthorized
	}
	if _, err := e.content.Get(targetID); err != nil {
		return err
	}
	if err := e.content.Link(replyID, targetID); err != nil {
		return err
	}
	if err := e.activity.LogInteraction(caller, now); err != nil {
		return err
	}
	e.emit(RepliedEvent(replyID, targetID))
	return nil
}

// Withdraw transfers the whole accumulated fee balance to the administrator.
func (e *Engine) Withdraw(caller types.Address) (*big.Int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	amount, err := e.withdraw(caller)
	return amount, e.observe("withdraw", err)
}

func (e *Engine) withdraw(caller types.Address) (*big.Int, error) {
	if err := e.configured(); err != nil {
		return nil, err
	}
	if caller != e.admin {
		return nil, ErrUnauthorized
	}
	balance, err := e.token.BalanceOf(e.feeVault)
	if err != nil {
		return nil, err
	}
	if balance.Sign() == 0 {
		return nil, ErrNothingToWithdraw
	}
	if err := e.token.Transfer(e.admin, balance); err != nil {
		return nil, err
	}
	return balance, nil
}

// CreateUser claims a username for the caller and stores their profile
// metadata in the same workflow.
func (e *Engine) CreateUser(caller types.Address, name string, metadataHash types.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.observe("create_user", e.createUser(caller, name, metadataHash))
}

func (e *Engine) createUser(caller types.Address, name string, metadataHash types.Hash) error {
	if err := e.configured(); err != nil {
		return err
	}
	now := e.now()
	if now < e.activity.Genesis() {
		return activity.ErrBeforeGenesis
	}
	if err := e.activity.RegisterUsername(caller, name); err != nil {
		return err
	}
	e.activity.SetMetadata(caller, metadataHash)
	return e.activity.LogInteraction(caller, now)
}

// UpdateMetadata overwrites the caller's profile metadata digest.
func (e *Engine) UpdateMetadata(caller types.Address, metadataHash types.Hash) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.observe("update_metadata", e.updateMetadata(caller, metadataHash))
}

func (e *Engine) updateMetadata(caller types.Address, metadataHash types.Hash) error {
	if err := e.configured(); err != nil {
		return err
	}
	now := e.now()
	if now < e.activity.Genesis() {
		return activity.ErrBeforeGenesis
	}
	e.activity.SetMetadata(caller, metadataHash)
	return e.activity.LogInteraction(caller, now)
}

// GetProfile returns the account's profile, zero-valued if never seen.
func (e *Engine) GetProfile(addr types.Address) activity.Profile {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activity.Profile(addr)
}

// GetUsernameOwner resolves a registered username to its account.
func (e *Engine) GetUsernameOwner(name string) (types.Address, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activity.UsernameOwner(name)
}

// CurrentPeriodMAU returns the trailing closed-period active user count.
func (e *Engine) CurrentPeriodMAU() uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activity.CurrentPeriodMAU()
}

// HistoricMAU returns the counter recorded for one elapsed period.
func (e *Engine) HistoricMAU(period uint64) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activity.HistoricMAU(period)
}

// GetContentByID returns a copy of the record named by id.
func (e *Engine) GetContentByID(id content.Identifier) (content.Record, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content.Get(id)
}

// GetContentLibraryLength reports how many slots a collection has allocated.
func (e *Engine) GetContentLibraryLength(contentType content.ContentType) (uint64, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content.Length(contentType)
}

// GetRepliesOf returns the identifiers the record replies to.
func (e *Engine) GetRepliesOf(id content.Identifier) ([]content.Identifier, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content.RepliesOf(id)
}

// GetRepliedBy returns the identifiers replying to the record.
func (e *Engine) GetRepliedBy(id content.Identifier) ([]content.Identifier, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.content.RepliedByOf(id)
}

// Snapshot invokes persist with the ledger and tracker while no workflow is
// in flight, so the persisted state is a consistent point in time.
func (e *Engine) Snapshot(persist func(*content.Ledger, *activity.Tracker) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return persist(e.content, e.activity)
}
