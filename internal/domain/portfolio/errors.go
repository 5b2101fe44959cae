package portfolio

import "github.com/rotisserie/eris"

var (
	// ErrSlugTaken means an explicit slug is already used by another of the owner's portfolios.
	ErrSlugTaken = eris.New("slug already in use")
	// ErrSlugExhausted means the allocator ran out of suffix attempts.
	ErrSlugExhausted = eris.New("slug suffix attempts exhausted")
)
