package engine

import "errors"

// Sentinel kinds for engine errors.
var (
	ErrPlayerNotFound = errors.New("player not found")
	ErrRoastCooldown  = errors.New("roast cooldown active")
)
