package media

import (
	"fmt"
	"strings"

	"voicebank/errs"
)

// Format identifies an audio encoding as a (container, codec) pair, e.g.
// {ogg, opus} or {wav, pcm_s16le}.
type Format struct {
	Container string
	Codec     string
}

func (f Format) Equal(other Format) bool {
	return f.Container == other.Container && f.Codec == other.Codec
}

func (f Format) String() string {
	return f.Container + "/" + f.Codec
}

// ParseFormat parses "container/codec".
func ParseFormat(s string) (Format, error) {
	parts := strings.Split(s, "/")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return Format{}, fmt.Errorf("%w: malformed audio format %q", errs.ErrInvalidInput, s)
	}
	return Format{Container: parts[0], Codec: parts[1]}, nil
}
