package utils

import "sort"

type TrieNode struct {
	Children map[rune]*TrieNode
	Freq     int
	IsWord   bool
}

// Trie is a rune prefix tree of words with frequencies.
type Trie struct {
	Root   *TrieNode
	size   int
	maxLen int
}

func NewTrie() *Trie {
	return &Trie{Root: &TrieNode{}}
}

// Add inserts word; re-adding keeps the larger frequency.
func (t *Trie) Add(word string, freq int) bool {
	runes := []rune(word)
	if len(runes) == 0 {
		return false
	}

	node := t.Root
	for _, r := range runes {
		child, ok := node.Children[r]
		if !ok {
			if node.Children == nil {
				node.Children = make(map[rune]*TrieNode)
			}
			child = &TrieNode{}
			node.Children[r] = child
		}
		node = child
	}

	added := !node.IsWord
	if added {
		t.size++
	}
	node.IsWord = true
	if freq > node.Freq {
		node.Freq = freq
	}
	if len(runes) > t.maxLen {
		t.maxLen = len(runes)
	}
	return added
}

func (t *Trie) Contains(word string) bool {
	node := t.Root
	for _, r := range word {
		child, ok := node.Children[r]
		if !ok {
			return false
		}
		node = child
	}
	return node.IsWord
}

// LongestMatch returns the length in runes of the longest word starting at runes[start].
func (t *Trie) LongestMatch(runes []rune, start int) (int, bool) {
	node := t.Root
	best := 0
	for i := start; i < len(runes); i++ {
		child, ok := node.Children[runes[i]]
		if !ok {
			break
		}
		node = child
		if node.IsWord {
			best = i - start + 1
		}
	}
	return best, best > 0
}

// ForwardMaxMatch scans runes left to right and returns [start, end) spans of matched words.
func (t *Trie) ForwardMaxMatch(runes []rune) [][2]int {
	var spans [][2]int
	for i := 0; i < len(runes); {
		if l, ok := t.LongestMatch(runes, i); ok {
			spans = append(spans, [2]int{i, i + l})
			i += l
			continue
		}
		i++
	}
	return spans
}

func (t *Trie) Len() int {
	return t.size
}

func (t *Trie) MaxLen() int {
	return t.maxLen
}

// Words returns all words in lexical order.
func (t *Trie) Words() []string {
	var words []string
	var walk func(node *TrieNode, prefix []rune)
	walk = func(node *TrieNode, prefix []rune) {
		if node.IsWord {
			words = append(words, string(prefix))
		}
		for r, child := range node.Children {
			walk(child, append(prefix, r))
		}
	}
	walk(t.Root, nil)
	sort.Strings(words)
	return words
}
