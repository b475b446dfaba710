package perceptron

import (
	"strings"

	"ltp.dev/ltpgo/utils"
)

// Feature is a named template instance; its hash is the weight row key.
type Feature interface {
	String() string
}

type StrFeature struct {
	Name  string
	Value string
}

func (f *StrFeature) String() string {
	return f.Name + "=" + f.Value
}

type BoolFeature struct {
	Name  string
	Value bool
}

func (f *BoolFeature) String() string {
	if f.Value {
		return f.Name + "=1"
	}
	return f.Name + "=0"
}

func HashFeature(f Feature) uint64 {
	return utils.HashString(f.String())
}

// Features collects hashed features of one position.
type Features []uint64

// Add hashes template name with the values joined by a separator that cannot occur in text.
func (fs *Features) Add(name string, values ...string) {
	*fs = append(*fs, utils.HashString(name+"="+strings.Join(values, "\x1f")))
}

func (fs *Features) AddFeature(f Feature) {
	*fs = append(*fs, HashFeature(f))
}
