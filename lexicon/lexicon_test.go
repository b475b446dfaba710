package lexicon

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadWords(t *testing.T) {
	words, err := ReadWords(strings.NewReader("汤姆去 3\nSCSG\n\nIP地址 7\n"), 1)
	require.NoError(t, err)
	require.Equal(t, []Word{{Text: "汤姆去", Freq: 3}, {Text: "SCSG", Freq: 1}, {Text: "IP地址", Freq: 7}}, words)

	_, err = ReadWords(strings.NewReader("汤姆 x\n"), 1)
	require.Error(t, err)
}
