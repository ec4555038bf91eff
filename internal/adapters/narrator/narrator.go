// Package narrator adapts an external text-completion service into the
// engine's commentary contract. Any failure means "no commentary produced";
// nothing in this package surfaces errors to the scoring path.
package narrator

import "context"

// Narrator generates short narrative text from a fixed instruction and an
// assembled context string.
type Narrator interface {
	Generate(ctx context.Context, instruction, prompt string) (string, error)
}
