package utils

import (
	"fmt"

	"github.com/zeebo/xxh3"
)

// ContentHash returns a short stable hash of text, used to detect whether a
// component or file changed between sync cycles. Not cryptographic; xxh3 is
// picked for speed on repeated full-project scans.
func ContentHash(text string) string {
	return fmt.Sprintf("%016x", xxh3.HashString(text))
}
