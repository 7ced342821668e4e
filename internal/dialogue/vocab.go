package dialogue

import "strings"

// affirmative and negative are the closed Korean confirmation vocabularies
// (GLOSSARY) used to route ambiguous short utterances while a payment is
// processing (spec §4.4). Matching is substring containment against the
// normalized input, mirroring the original dialogue engine.
var affirmative = []string{
	"네", "예", "알겠다", "확인", "좋아", "맞아", "그래", "응",
	"오케이", "ok", "결제", "진행", "해주세요", "부탁", "합니다",
	"결제해", "결제할게", "결제하자", "결제진행", "결제해주세요",
	"맞습니다", "맞아요", "그렇습니다", "그래요", "좋습니다",
	"동의", "승인", "허가", "진행해", "계속", "yes", "y",
}

var negative = []string{
	"아니", "안", "취소", "그만", "중단", "멈춰", "stop", "no", "n",
	"아니요", "아니야", "싫어", "안해", "안할래", "취소해", "취소할게",
}

// normalizeUtterance lower-cases text and strips spaces and the most
// common trailing punctuation, matching the original's normalization
// before vocabulary matching.
func normalizeUtterance(text string) string {
	s := strings.ToLower(text)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ReplaceAll(s, "!", "")
	s = strings.ReplaceAll(s, "?", "")
	return s
}

// matchesAny reports whether normalized contains any of vocab as a substring.
func matchesAny(normalized string, vocab []string) bool {
	for _, v := range vocab {
		if strings.Contains(normalized, v) {
			return true
		}
	}
	return false
}

// confirmation classifies a short utterance against the affirmative and
// negative vocabularies. Negative is checked first, matching spec §8's
// "Payment override" property and the original's stated rationale (a
// negative match is a clearer signal than an affirmative one).
type confirmation int

const (
	confirmationAmbiguous confirmation = iota
	confirmationNegative
	confirmationAffirmative
)

func classifyConfirmation(text string) confirmation {
	normalized := normalizeUtterance(text)
	if matchesAny(normalized, negative) {
		return confirmationNegative
	}
	if matchesAny(normalized, affirmative) {
		return confirmationAffirmative
	}
	return confirmationAmbiguous
}
