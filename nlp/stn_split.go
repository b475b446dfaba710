package nlp

import (
	"unicode"

	"ltp.dev/ltpgo/types"
)

type SentenceSplitter func(in <-chan string) <-chan types.Sentence

// StnSplit is a rule based sentence splitter for Chinese and English text.
type StnSplit struct {
	UseZh           bool `json:"use_zh"`
	UseEn           bool `json:"use_en"`
	BracketAsEntity bool `json:"bracket_as_entity"`
	ZhQuoteAsEntity bool `json:"zh_quote_as_entity"`
	EnQuoteAsEntity bool `json:"en_quote_as_entity"`
}

func NewStnSplit() *StnSplit {
	return &StnSplit{
		UseZh:           true,
		UseEn:           true,
		BracketAsEntity: true,
		ZhQuoteAsEntity: true,
		EnQuoteAsEntity: true,
	}
}

var (
	zhTerminators = map[rune]bool{'。': true, '！': true, '？': true, '…': true}
	enTerminators = map[rune]bool{'.': true, '!': true, '?': true}

	openBrackets = map[rune]rune{
		'(': ')', '（': '）', '[': ']', '【': '】', '{': '}', '《': '》',
	}
	closeBrackets = map[rune]bool{')': true, '）': true, ']': true, '】': true, '}': true, '》': true}

	zhOpenQuotes  = map[rune]bool{'“': true, '‘': true, '「': true, '『': true}
	zhCloseQuotes = map[rune]bool{'”': true, '’': true, '」': true, '』': true}
)

const enQuote = '"'

func (s *StnSplit) Split(text string) []string {
	sents := s.SplitSpans(text)
	result := make([]string, 0, len(sents))
	for _, sent := range sents {
		result = append(result, *sent.Text)
	}
	return result
}

func (s *StnSplit) BatchSplit(texts []string) []string {
	var result []string
	for _, text := range texts {
		result = append(result, s.Split(text)...)
	}
	return result
}

// SplitSpans returns the sentences of text with rune offsets into it.
func (s *StnSplit) SplitSpans(text string) []types.Sentence {
	runes := []rune(text)
	var sents []types.Sentence

	emit := func(begin, end int) {
		for begin < end && unicode.IsSpace(runes[begin]) {
			begin++
		}
		for end > begin && unicode.IsSpace(runes[end-1]) {
			end--
		}
		if begin == end {
			return
		}
		sentText := string(runes[begin:end])
		sents = append(sents, types.Sentence{
			Span:  types.Span{Begin: int32(begin), End: int32(end), Text: &sentText},
			Index: len(sents),
		})
	}

	bracketDepth, zhQuoteDepth := 0, 0
	inEnQuote := false
	start := 0

	nested := func() bool {
		return bracketDepth > 0 || zhQuoteDepth > 0 || inEnQuote
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case s.BracketAsEntity && openBrackets[r] != 0:
			bracketDepth++
			continue
		case s.BracketAsEntity && closeBrackets[r]:
			if bracketDepth > 0 {
				bracketDepth--
			}
			continue
		case s.ZhQuoteAsEntity && zhOpenQuotes[r]:
			zhQuoteDepth++
			continue
		case s.ZhQuoteAsEntity && zhCloseQuotes[r]:
			if zhQuoteDepth > 0 {
				zhQuoteDepth--
			}
			if !nested() && i > 0 && s.isTerminator(runes[i-1]) {
				emit(start, i+1)
				start = i + 1
			}
			continue
		case s.EnQuoteAsEntity && r == enQuote:
			if !inEnQuote {
				inEnQuote = true
				continue
			}
			inEnQuote = false
			if !nested() && i > 0 && s.isTerminator(runes[i-1]) && boundaryAt(runes, i+1) {
				emit(start, i+1)
				start = i + 1
			}
			continue
		}

		if nested() || !s.isTerminator(r) {
			continue
		}

		end := i + 1
		for end < len(runes) && s.isTerminator(runes[end]) {
			end++
		}
		// closing quotes right after the terminators belong to this sentence
		for end < len(runes) && (zhCloseQuotes[runes[end]] || runes[end] == '\'') {
			end++
		}

		if !s.UseZh || !hasZhTerminator(runes[i:end]) {
			if !boundaryAt(runes, end) {
				i = end - 1
				continue
			}
		}
		emit(start, end)
		start = end
		i = end - 1
	}
	emit(start, len(runes))
	return sents
}

func (s *StnSplit) isTerminator(r rune) bool {
	return (s.UseZh && zhTerminators[r]) || (s.UseEn && enTerminators[r])
}

func hasZhTerminator(runes []rune) bool {
	for _, r := range runes {
		if zhTerminators[r] {
			return true
		}
	}
	return false
}

// boundaryAt reports whether an English sentence may end before position i.
func boundaryAt(runes []rune, i int) bool {
	return i >= len(runes) || unicode.IsSpace(runes[i])
}

// NewSentenceSplitter wraps split into a pipeline stage emitting one Sentence per split.
func NewSentenceSplitter(split *StnSplit) SentenceSplitter {
	return func(in <-chan string) <-chan types.Sentence {
		out := make(chan types.Sentence)
		go func() {
			defer close(out)
			for text := range in {
				for _, sent := range split.SplitSpans(text) {
					out <- sent
				}
			}
		}()
		return out
	}
}
