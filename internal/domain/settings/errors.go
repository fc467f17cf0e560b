package settings

import "errors"

var (
	// ErrRuleNotFound means no stored schedule rule has the requested id.
	ErrRuleNotFound = errors.New("schedule rule not found")
)
