package sentiment

import (
	"context"
	"strings"
	"unicode"

	"github.com/abhijeets54/feedback-backend/internal/model"
)

var (
	positiveWords = []string{
		"good", "great", "excellent", "outstanding", "strong", "helpful", "reliable",
		"clear", "proactive", "impressive", "improved", "thorough", "creative",
		"collaborative", "supportive", "efficient", "consistent", "exceeds", "well",
		"thanks", "appreciate", "positive", "solid", "effective",
	}
	negativeWords = []string{
		"bad", "poor", "late", "missed", "weak", "careless", "sloppy", "unclear",
		"slow", "unreliable", "rude", "lacking", "fails", "failed", "negative",
		"problem", "problems", "issue", "issues", "concern", "concerns", "inconsistent",
		"disappointing", "struggles", "struggled",
	}
	negations = map[string]bool{"not": true, "no": true, "never": true, "hardly": true, "without": true}
)

// Lexicon 基于词表的本地分类器，不依赖外部服务
type Lexicon struct {
	positive  map[string]bool
	negative  map[string]bool
	threshold int
}

// NewLexicon 创建默认词表分类器
func NewLexicon() *Lexicon {
	l := &Lexicon{
		positive:  make(map[string]bool, len(positiveWords)),
		negative:  make(map[string]bool, len(negativeWords)),
		threshold: 1,
	}
	for _, w := range positiveWords {
		l.positive[w] = true
	}
	for _, w := range negativeWords {
		l.negative[w] = true
	}
	return l
}

// Classify 统计正负词得分；否定词翻转紧随其后一个词的极性
func (l *Lexicon) Classify(ctx context.Context, text string) (model.Sentiment, error) {
	if err := ctx.Err(); err != nil {
		return "", ErrUnavailable
	}

	tokens := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && r != '\''
	})

	score := 0
	negate := false
	for _, tok := range tokens {
		if negations[tok] || strings.HasSuffix(tok, "n't") {
			negate = true
			continue
		}
		delta := 0
		switch {
		case l.positive[tok]:
			delta = 1
		case l.negative[tok]:
			delta = -1
		}
		if negate {
			delta = -delta
			negate = false
		}
		score += delta
	}

	switch {
	case score >= l.threshold:
		return model.SentimentPositive, nil
	case score <= -l.threshold:
		return model.SentimentNegative, nil
	default:
		return model.SentimentNeutral, nil
	}
}
