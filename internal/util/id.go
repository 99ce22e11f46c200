package util

import (
	"crypto/sha1"
	"encoding/hex"
	"strconv"
)

// GenerateID identifies the ordinal-th chunk of a source file spanning start..end lines.
func GenerateID(source string, ordinal, start, end int) string {
	base := source + ":" + strconv.Itoa(ordinal) + ":" + strconv.Itoa(start) + ":" + strconv.Itoa(end)
	h := sha1.Sum([]byte(base))
	return hex.EncodeToString(h[:])
}

// ContentHash identifies a text under a given model for caching.
func ContentHash(model, text string) string {
	h := sha1.Sum([]byte(model + "\x00" + text))
	return hex.EncodeToString(h[:])
}
