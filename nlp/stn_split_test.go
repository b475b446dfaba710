package nlp

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStnSplit(t *testing.T) {
	split := NewStnSplit()

	t.Run("chinese", func(t *testing.T) {
		sents := split.Split("他叫汤姆去拿外衣。汤姆生病了！！他去了医院？")
		require.Equal(t, []string{"他叫汤姆去拿外衣。", "汤姆生病了！！", "他去了医院？"}, sents)
	})

	t.Run("english", func(t *testing.T) {
		sents := split.Split("Tom is ill. He costs 3.14 dollars!  Really?")
		require.Equal(t, []string{"Tom is ill.", "He costs 3.14 dollars!", "Really?"}, sents)
	})

	t.Run("brackets", func(t *testing.T) {
		sents := split.Split("他说（今天很冷。明天更冷。）我们走吧。")
		require.Equal(t, []string{"他说（今天很冷。明天更冷。）我们走吧。"}, sents)
	})

	t.Run("zh quotes attach", func(t *testing.T) {
		sents := split.Split("他说：“你好。”我们走吧。")
		require.Equal(t, []string{"他说：“你好。”", "我们走吧。"}, sents)
	})

	t.Run("zh quotes off", func(t *testing.T) {
		s := NewStnSplit()
		s.ZhQuoteAsEntity = false
		sents := s.Split("“今天很冷。明天更冷。”")
		require.Equal(t, []string{"“今天很冷。", "明天更冷。”"}, sents)
	})

	t.Run("en quotes", func(t *testing.T) {
		sents := split.Split(`He said "Go now. Run" and left.`)
		require.Equal(t, []string{`He said "Go now. Run" and left.`}, sents)

		sents = split.Split(`He said "Go now." Then he left.`)
		require.Equal(t, []string{`He said "Go now."`, "Then he left."}, sents)
	})

	t.Run("zh disabled", func(t *testing.T) {
		s := NewStnSplit()
		s.UseZh = false
		require.Equal(t, []string{"今天很冷。明天更冷。"}, s.Split("今天很冷。明天更冷。"))
	})

	t.Run("empty", func(t *testing.T) {
		require.Empty(t, split.Split("   "))
		require.Empty(t, split.Split(""))
	})

	t.Run("batch", func(t *testing.T) {
		sents := split.BatchSplit([]string{"你好。再见。", "Hi. Bye."})
		require.Equal(t, []string{"你好。", "再见。", "Hi.", "Bye."}, sents)
	})
}

func TestSplitSpans(t *testing.T) {
	sents := NewStnSplit().SplitSpans(" 你好。 再见！")
	require.Len(t, sents, 2)
	require.Equal(t, int32(1), sents[0].Begin)
	require.Equal(t, int32(4), sents[0].End)
	require.Equal(t, int32(5), sents[1].Begin)
	require.Equal(t, int32(8), sents[1].End)
	require.Equal(t, "再见！", *sents[1].Text)
	require.Equal(t, 1, sents[1].Index)
}

func TestSentenceSplitter(t *testing.T) {
	in := make(chan string)
	go func() {
		defer close(in)
		in <- "你好。再见。"
		in <- "Hi."
	}()

	var texts []string
	for sent := range NewSentenceSplitter(NewStnSplit())(in) {
		texts = append(texts, sent.String())
	}
	require.Equal(t, []string{"你好。", "再见。", "Hi."}, texts)
}
