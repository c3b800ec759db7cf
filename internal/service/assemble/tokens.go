package assemble

import (
	"sync"
	"unicode/utf8"

	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter measures prompt text against the assembly budget.
type TokenCounter func(s string) int

var (
	encodingOnce sync.Once
	encoding     *tiktoken.Tiktoken
)

// TokenCount counts BPE tokens with the cl100k_base encoding. When the
// encoding cannot be loaded (first use fetches the vocabulary), it
// degrades to a chars/4 estimate so assembly keeps working offline.
func TokenCount(s string) int {
	encodingOnce.Do(func() {
		enc, err := tiktoken.GetEncoding("cl100k_base")
		if err == nil {
			encoding = enc
		}
	})
	if encoding == nil {
		return approxTokens(s)
	}
	return len(encoding.Encode(s, nil, nil))
}

// CharCount counts runes. Deterministic and dependency-free.
func CharCount(s string) int {
	return utf8.RuneCountInString(s)
}

func approxTokens(s string) int {
	return (utf8.RuneCountInString(s) + 3) / 4
}
