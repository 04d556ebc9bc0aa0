package answer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/quizlab/quizd/internal/model"
)

// Judgement answers must be exactly one of these two tokens.
const (
	JudgementTrue  = "正确"
	JudgementFalse = "错误"
)

// Validate reports whether a raw model answer has the shape required by the
// question kind. It is the single format gate for first answers and
// re-answers alike.
func Validate(answer string, kind model.Kind) bool {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return false
	}

	switch kind {
	case model.KindSingle:
		return isSingleLetter(answer)
	case model.KindMultiple:
		for _, part := range strings.Split(answer, "#") {
			if !isSingleLetter(part) {
				return false
			}
		}
		return true
	case model.KindJudgement:
		return answer == JudgementTrue || answer == JudgementFalse
	default:
		// completion and unknown kinds accept any non-empty answer.
		return true
	}
}

func isSingleLetter(s string) bool {
	r, size := utf8.DecodeRuneInString(s)
	return size == len(s) && unicode.IsLetter(r)
}
