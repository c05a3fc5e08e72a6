package value

import (
	"strings"
	"unicode/utf16"

	"github.com/timelinecore/microfeed/internal/core/domainerr"
)

// MaxPostBodyLength is the maximum length of a PostBody in UTF-16 code units.
const MaxPostBodyLength = 280

// PostBody is a validated, verbatim-stored post body.
type PostBody string

// NewPostBody trims surrounding whitespace only for the emptiness check;
// the stored value is the original, untrimmed input.
func NewPostBody(raw string) (PostBody, error) {
	if strings.TrimSpace(raw) == "" {
		return "", domainerr.ErrInvalidBody
	}
	if n := len(utf16.Encode([]rune(raw))); n > MaxPostBodyLength {
		return "", domainerr.ErrInvalidBody
	}
	return PostBody(raw), nil
}

func (b PostBody) String() string { return string(b) }
