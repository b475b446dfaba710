package utils

import "unicode"

// Character classes used by segmentation features.
const (
	CharDigit  = 'D'
	CharLatin  = 'L'
	CharPunct  = 'P'
	CharHan    = 'C'
	CharSpace  = 'S'
	CharOther  = 'O'
	CharBorder = 'B'
)

func CharType(ch rune) rune {
	switch {
	case ch >= '0' && ch <= '9', ch >= '０' && ch <= '９':
		return CharDigit
	case ch < 128 && unicode.IsLetter(ch), ch >= 'Ａ' && ch <= 'Ｚ', ch >= 'ａ' && ch <= 'ｚ':
		return CharLatin
	case unicode.Is(unicode.Han, ch):
		return CharHan
	case unicode.IsSpace(ch):
		return CharSpace
	case IsPunct(ch):
		return CharPunct
	}
	return CharOther
}

func IsPunct(r rune) bool {
	if unicode.IsPunct(r) || unicode.IsSymbol(r) {
		return true
	}
	// CJK symbols and punctuation
	if r >= 0x3000 && r <= 0x303F {
		return true
	}
	// full-width forms, excluding letters and digits
	if r >= 0xFF00 && r <= 0xFFEF {
		t := r - 0xFEE0
		return !(t >= '0' && t <= '9' || t >= 'A' && t <= 'Z' || t >= 'a' && t <= 'z')
	}
	return false
}

// IsConcatType reports whether consecutive characters of this class should stay in one word.
func IsConcatType(t rune) bool {
	return t == CharDigit || t == CharLatin
}
