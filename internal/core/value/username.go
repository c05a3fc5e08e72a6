package value

import (
	"regexp"

	"github.com/timelinecore/microfeed/internal/core/domainerr"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]{3,20}$`)

// Username is a validated, byte-exact-compared handle.
type Username string

// NewUsername validates raw against the 3-20 char [A-Za-z0-9_] rule.
func NewUsername(raw string) (Username, error) {
	if !usernamePattern.MatchString(raw) {
		return "", domainerr.ErrInvalidUsername
	}
	return Username(raw), nil
}

func (u Username) String() string { return string(u) }
