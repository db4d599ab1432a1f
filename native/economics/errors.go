package economics

import "errors"

var (
	ErrDivisionByZero  = errors.New("economics: monthly active user count is zero")
	ErrNoStrikes       = errors.New("economics: strike count is zero")
	ErrQuorumNotMet    = errors.New("economics: vote quorum not met")
	ErrInvalidUsername = errors.New("economics: invalid username")
)
