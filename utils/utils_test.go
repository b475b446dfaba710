package utils

import (
	"container/heap"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type scored float64

func (s scored) Less(o interface{}) bool {
	return s > o.(scored)
}

func TestPriorityQueuePopsHighestFirst(t *testing.T) {
	pq := make(PriorityQueue, 0)
	heap.Init(&pq)
	for _, v := range []float64{0.3, 1.5, -2, 0.9} {
		heap.Push(&pq, scored(v))
	}
	var got []float64
	for pq.Len() > 0 {
		got = append(got, float64(heap.Pop(&pq).(scored)))
	}
	require.Equal(t, []float64{1.5, 0.9, 0.3, -2}, got)
}

func TestHashString(t *testing.T) {
	require.Equal(t, HashString("汤姆"), HashString("汤姆"))
	require.NotEqual(t, HashString("他"), HashString("叫"))
}

func TestCharType(t *testing.T) {
	cases := map[rune]rune{
		'7': CharDigit, '７': CharDigit,
		'a': CharLatin, 'Ｑ': CharLatin,
		'汤': CharHan,
		'。': CharPunct, ',': CharPunct, '，': CharPunct,
		' ': CharSpace,
		'한': CharOther,
	}
	for r, expected := range cases {
		require.Equal(t, string(expected), string(CharType(r)), string(r))
	}
}

func TestTrie(t *testing.T) {
	trie := NewTrie()
	require.True(t, trie.Add("SCSG", 1))
	require.True(t, trie.Add("IP地址", 2))
	require.True(t, trie.Add("IP", 1))
	require.False(t, trie.Add("IP", 5))
	require.False(t, trie.Add("", 1))

	require.Equal(t, 3, trie.Len())
	require.Equal(t, 4, trie.MaxLen())
	require.True(t, trie.Contains("IP"))
	require.False(t, trie.Contains("IP地"))

	runes := []rune("SCSGIP地址")
	l, ok := trie.LongestMatch(runes, 4)
	require.True(t, ok)
	require.Equal(t, 4, l)

	require.Equal(t, [][2]int{{0, 4}, {4, 8}}, trie.ForwardMaxMatch(runes))
	require.Equal(t, []string{"IP", "IP地址", "SCSG"}, trie.Words())
}

func TestReadLinesSkipsEmpty(t *testing.T) {
	lines, err := ReadLines(strings.NewReader("a b\n\n c \r\n"))
	require.NoError(t, err)
	require.Equal(t, []string{"a b", " c"}, lines)
}
