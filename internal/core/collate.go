package core

import (
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

// newCollator returns a Korean collator.
// Collators keep internal buffers and must not be shared between goroutines,
// so every derivation builds its own.
func newCollator() *collate.Collator {
	return collate.New(language.Korean)
}
