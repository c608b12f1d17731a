package services

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"
)

// Kind prefixes for the human-readable submission identifiers.
const (
	PrefixVisa       = "VA"
	PrefixContact    = "CT"
	PrefixFeedback   = "FB"
	PrefixNewsletter = "NL"
)

const idSuffixLen = 6

var base36 = big.NewInt(36)

// NewSubmissionID generates a fresh identifier in the form
// <PREFIX>-<epoch-millis>-<random-base36>. Collision probability is treated
// as negligible and is not re-checked against the store.
func NewSubmissionID(prefix string) string {
	var suffix strings.Builder
	for i := 0; i < idSuffixLen; i++ {
		n, err := rand.Int(rand.Reader, base36)
		if err != nil {
			// crypto/rand only fails when the OS entropy source is
			// broken; degrade to a timestamp-derived digit.
			n = big.NewInt(time.Now().UnixNano() % 36)
		}
		suffix.WriteByte("0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"[n.Int64()])
	}
	return fmt.Sprintf("%s-%d-%s", prefix, time.Now().UnixMilli(), suffix.String())
}
