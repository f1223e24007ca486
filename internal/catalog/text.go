package catalog

import (
	"strings"
	"unicode"

	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// Input limits, counted in user-perceived characters.
const (
	NicknameMin = 2
	NicknameMax = 10
	CommentMax  = 200
	RecentMax   = 10
)

// NormalizeText trims s, collapses inner whitespace and converts it to NFC,
// so decomposed Hangul (conjoining jamo) compares equal to precomposed
// syllables.
func NormalizeText(s string) string {
	return norm.NFC.String(strings.Join(strings.Fields(s), " "))
}

// Length returns the number of grapheme clusters in s.
func Length(s string) int {
	return uniseg.GraphemeClusterCount(s)
}

// ValidateNickname checks a nickname and returns a validation error or nil.
func ValidateNickname(nickname string) *Error {
	const op, field = "settings.nickname", "닉네임"
	n := NormalizeText(nickname)
	switch l := Length(n); {
	case l == 0:
		return ValidationError(op, field, ReasonEmpty)
	case l < NicknameMin:
		return ValidationError(op, field, ReasonTooShort)
	case l > NicknameMax:
		return ValidationError(op, field, ReasonTooLong)
	}
	for _, r := range n {
		if unicode.Is(unicode.Hangul, r) || unicode.IsDigit(r) || (r < unicode.MaxASCII && unicode.IsLetter(r)) {
			continue
		}
		return ValidationError(op, field, ReasonInvalidChars)
	}
	return nil
}

// ValidateComment checks comment content.
func ValidateComment(content string) *Error {
	const op, field = "information.comment", "댓글"
	n := strings.TrimSpace(content)
	switch l := Length(n); {
	case l == 0:
		return ValidationError(op, field, ReasonEmpty)
	case l > CommentMax:
		return ValidationError(op, field, ReasonTooLong)
	}
	return nil
}
