// Package invitecode generates and validates invitation codes and builds the
// join links handed to invitees.
package invitecode

import (
	"crypto/rand"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// Alphabet omits 0/O, 1/I/L and U so codes survive being read aloud.
const Alphabet = "ABCDEFGHJKMNPQRSTVWXYZ23456789ab"

const Length = 12

func Generate() (string, error) {
	buf := make([]byte, Length)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	// 256 is a multiple of 32, so masking keeps the distribution uniform.
	for i, b := range buf {
		buf[i] = Alphabet[int(b)&(len(Alphabet)-1)]
	}
	return string(buf), nil
}

func Valid(code string) bool {
	if len(code) != Length {
		return false
	}
	for i := 0; i < len(code); i++ {
		if strings.IndexByte(Alphabet, code[i]) < 0 {
			return false
		}
	}
	return true
}

// JoinURL builds {base}/join?unit=<id>&code=<code>&name=<unit name>.
func JoinURL(base string, unitID uuid.UUID, code, unitName string) string {
	q := url.Values{}
	q.Set("unit", unitID.String())
	q.Set("code", code)
	q.Set("name", unitName)
	return strings.TrimRight(base, "/") + "/join?" + q.Encode()
}
