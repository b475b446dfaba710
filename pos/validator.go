package pos

import (
	"io"
	"strings"

	"ltp.dev/ltpgo/utils"
)

type SequenceValidator interface {
	ValidSequence(i int, words []string, outcome string) bool
}

// TagDictionary maps a word to the only tags it may take.
type TagDictionary map[string]map[string]bool

type defaultSequenceValidator struct {
	tagDictionary TagDictionary
}

func (g defaultSequenceValidator) ValidSequence(i int, words []string, outcome string) bool {
	if g.tagDictionary != nil {
		tags, res := g.tagDictionary[words[i]]
		if !res {
			return true
		}

		return tags[outcome]
	}

	return true
}

func NewSequenceValidator(dict TagDictionary) SequenceValidator {
	return defaultSequenceValidator{tagDictionary: dict}
}

// ReadTagDictionary reads lines of a word followed by its allowed tags.
func ReadTagDictionary(r io.Reader) (TagDictionary, error) {
	lines, err := utils.ReadLines(r)
	if err != nil {
		return nil, err
	}
	dict := make(TagDictionary, len(lines))
	for _, line := range lines {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		tags := dict[fields[0]]
		if tags == nil {
			tags = make(map[string]bool, len(fields)-1)
			dict[fields[0]] = tags
		}
		for _, tag := range fields[1:] {
			tags[tag] = true
		}
	}
	return dict, nil
}
