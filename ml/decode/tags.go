package decode

import (
	"errors"
	"fmt"
	"strings"
)

type Scheme string

const (
	SchemeBIES Scheme = "bies"
	SchemeBIO  Scheme = "bio"
	// SchemeBMES is BIES without types, M marking word internal chars.
	SchemeBMES Scheme = "bmes"

	Outside = "O"
)

var ErrUnknownScheme = errors.New("unknown tag scheme")

// Chunk is a labelled span over positions [Start, End].
type Chunk struct {
	Label string
	Start int
	End   int
}

// SplitTag splits "B-Nh" into 'B' and "Nh". "O" and empty tags give 'O'.
func SplitTag(tag string) (byte, string) {
	if tag == "" || tag == Outside {
		return 'O', ""
	}
	prefix := tag[0]
	if prefix == 'M' {
		prefix = 'I'
	}
	if idx := strings.IndexByte(tag, '-'); idx >= 0 {
		return prefix, tag[idx+1:]
	}
	return prefix, ""
}

// GetEntities extracts chunks from tags. Broken chunks are closed where they break.
func GetEntities(tags []string, scheme Scheme) []Chunk {
	var chunks []Chunk
	start, label := -1, ""
	flush := func(end int) {
		if start >= 0 {
			chunks = append(chunks, Chunk{Label: label, Start: start, End: end})
		}
		start, label = -1, ""
	}

	for i, tag := range tags {
		prefix, typ := SplitTag(tag)
		switch prefix {
		case 'B':
			flush(i - 1)
			start, label = i, typ
		case 'I':
			if start < 0 || label != typ {
				flush(i - 1)
				start, label = i, typ
			}
		case 'E':
			if start < 0 || label != typ {
				flush(i - 1)
				start, label = i, typ
			}
			flush(i)
		case 'S':
			flush(i - 1)
			start, label = i, typ
			flush(i)
		default:
			flush(i - 1)
		}
	}
	flush(len(tags) - 1)
	return chunks
}

// TransitionMask builds the legal transitions of labels under scheme.
func TransitionMask(labels []string, scheme Scheme) (*Mask, error) {
	switch scheme {
	case SchemeBIES, SchemeBIO, SchemeBMES:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownScheme, scheme)
	}

	n := len(labels)
	mask := &Mask{
		Start: make([]bool, n),
		Trans: make([][]bool, n),
		End:   make([]bool, n),
	}
	prefixes := make([]byte, n)
	types := make([]string, n)
	for i, l := range labels {
		prefixes[i], types[i] = SplitTag(l)
	}

	// open reports whether a chunk is still running after prefix.
	open := func(p byte) bool {
		if scheme == SchemeBIO {
			return false
		}
		return p == 'B' || p == 'I'
	}
	continues := func(p byte) bool {
		if scheme == SchemeBIO {
			return p == 'I'
		}
		return p == 'I' || p == 'E'
	}

	for cur := 0; cur < n; cur++ {
		mask.Start[cur] = !continues(prefixes[cur])
		mask.End[cur] = !open(prefixes[cur])
	}
	for prev := 0; prev < n; prev++ {
		mask.Trans[prev] = make([]bool, n)
		for cur := 0; cur < n; cur++ {
			pp, cp := prefixes[prev], prefixes[cur]
			switch {
			case open(pp):
				mask.Trans[prev][cur] = continues(cp) && types[prev] == types[cur]
			case continues(cp) && scheme == SchemeBIO:
				mask.Trans[prev][cur] = (pp == 'B' || pp == 'I') && types[prev] == types[cur]
			default:
				mask.Trans[prev][cur] = !continues(cp)
			}
		}
	}
	return mask, nil
}
