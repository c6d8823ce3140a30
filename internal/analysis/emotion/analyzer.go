package emotion

import "strings"

// Label 表示日记条目上记录的情绪标签，取值即持久化到文件中的字符串。
type Label string

const (
	Joy       Label = "기쁨"
	Anger     Label = "분노"
	Sadness   Label = "슬픔"
	Tension   Label = "긴장"
	Refreshed Label = "상쾌"
	Bored     Label = "무료"
	Neutral   Label = "기본"
)

// Labels is the closed label set in declaration order. Tie-breaking and
// tallies across the module follow this order.
var Labels = []Label{Joy, Anger, Sadness, Tension, Refreshed, Bored, Neutral}

type rule struct {
	label    Label
	keywords []string
}

// rules 按优先级排列，先命中者胜出，不可调整顺序。
var rules = []rule{
	{label: Joy, keywords: []string{"행복", "좋", "기뻐", "감사"}},
	{label: Anger, keywords: []string{"화나", "짜증", "분노"}},
	{label: Sadness, keywords: []string{"슬프", "눈물", "우울"}},
	{label: Tension, keywords: []string{"긴장", "불안", "걱정"}},
	{label: Refreshed, keywords: []string{"상쾌", "개운"}},
	{label: Bored, keywords: []string{"무료", "심심"}},
}

var moodScores = map[Label]int{
	Joy:       10,
	Refreshed: 9,
	Bored:     5,
	Sadness:   3,
	Anger:     2,
	Tension:   4,
	Neutral:   5,
}

// Classify 根据关键词为文本打上情绪标签。未命中任何规则时返回 Neutral。
func Classify(text string) Label {
	normalized := strings.ToLower(text)
	if strings.TrimSpace(normalized) == "" {
		return Neutral
	}

	for _, r := range rules {
		for _, word := range r.keywords {
			if strings.Contains(normalized, word) {
				return r.label
			}
		}
	}
	return Neutral
}

// ParseLabel reports whether raw is one of the known labels.
func ParseLabel(raw string) (Label, bool) {
	candidate := Label(strings.TrimSpace(raw))
	for _, label := range Labels {
		if label == candidate {
			return label, true
		}
	}
	return "", false
}

// Valid reports whether l belongs to the label set.
func (l Label) Valid() bool {
	_, ok := ParseLabel(string(l))
	return ok
}

// Score 返回情绪对应的心情分数（0~10），未知标签按 Neutral 计算。
func Score(label Label) int {
	if s, ok := moodScores[label]; ok {
		return s
	}
	return moodScores[Neutral]
}
