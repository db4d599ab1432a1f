package activity

import "errors"

var (
	ErrAlreadyRegistered = errors.New("activity: username already registered")
	ErrBeforeGenesis     = errors.New("activity: interaction predates genesis")
	ErrPeriodOutOfRange  = errors.New("activity: period not yet recorded")
)
