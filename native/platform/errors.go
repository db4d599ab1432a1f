package platform

import "errors"

var (
	ErrNotConfigured     = errors.New("platform: engine not configured")
	ErrUnauthorized      = errors.New("platform: caller not authorized")
	ErrNothingToWithdraw = errors.New("platform: nothing to withdraw")
	ErrNoLikesToHarvest  = errors.New("platform: no unharvested net likes")
	ErrContentFlagged    = errors.New("platform: content flagged for elimination")
	ErrNotEliminable     = errors.New("platform: content not flagged for elimination")
)
