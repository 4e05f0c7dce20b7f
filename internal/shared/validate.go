package shared

import (
	"unicode"

	kvErr "github.com/sajjad-MoBe/logkv/internal/errors"
)

// ValidateKey rejects keys that network front-ends do not accept: empty keys
// and keys with any character that is not a letter or a digit.
func ValidateKey(key string) error {
	if key == "" {
		return kvErr.New(kvErr.ErrorTypeInvalidInput, "key is required", nil)
	}
	for _, r := range key {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return kvErr.New(kvErr.ErrorTypeInvalidInput, "key must be alphanumeric: "+key, nil)
		}
	}
	return nil
}
