package answer

import (
	"fmt"
	"strings"

	"github.com/quizlab/quizd/internal/model"
)

// System personas for the three model roles. The wire protocol always sends
// a two-message exchange: one of these plus the built user prompt.
const (
	systemAnswerer   = "你是一个专业的答题助手，请根据题目给出准确答案。"
	systemEvaluator  = "你是一个专业的答案评估助手，只返回0到1之间的数字。"
	systemSearcher   = "你是一个专业的答题助手，请根据题目、第一次答案的参考和联网搜索的信息给出准确答案。"
	systemReconsider = "你是一个专业的答题助手，请根据题目给出准确答案。注意第一次答案的置信度较低，请重新仔细分析。"
)

// BuildPrompt renders the instruction prompt for a question. The per-kind
// directive is fixed; an unrecognized kind gets the generic instruction.
func BuildPrompt(q model.Question) string {
	var b strings.Builder
	fmt.Fprintf(&b, "题目：%s\n", q.Title)

	if q.Options != "" {
		fmt.Fprintf(&b, "\n选项：\n%s\n", q.Options)
	}

	switch q.Kind {
	case model.KindSingle:
		b.WriteString("\n这是一道单选题，请仅返回正确答案的选项字母（如A、B、C、D），不要有其他解释，包括答案是等描述。")
	case model.KindMultiple:
		b.WriteString("\n这是一道多选题，请返回所有正确答案的选项字母，用#号分隔（如A#C#D），不要有其他解释。包括答案是等描述。")
	case model.KindJudgement:
		b.WriteString("\n这是一道判断题，请仅返回\"正确\"或\"错误\"，不要有其他解释。包括答案是等描述。")
	case model.KindCompletion:
		b.WriteString("\n这是一道填空题，请直接给出填空答案，如果有多个空，用#号分隔。")
	default:
		b.WriteString("\n请直接给出答案。")
	}

	return b.String()
}

// BuildConfidencePrompt renders the self-assessment prompt: the question, the
// already-given answer, and a request for a bare 0-1 number.
func BuildConfidencePrompt(q model.Question, answer string) string {
	options := q.Options
	if options == "" {
		options = "无选项（判断题或填空题）"
	}
	return fmt.Sprintf(`题目：%s

选项：
%s

我给出的答案是：%s

请评估这个答案正确的可能性有多大，给出0到1之间的一个数字（0表示完全不可能正确，1表示完全确定正确）。只返回数字，不要有其他解释描述。`, q.Title, options, answer)
}

// BuildSearchQuery composes the web search query: the title, plus the option
// block for choice kinds where the candidate answers sharpen the search.
func BuildSearchQuery(q model.Question) string {
	query := q.Title
	if q.Options != "" && q.Kind.IsChoice() {
		query += " " + q.Options
	}
	return query
}

// BuildSearchEscalationPrompt embeds the first answer, its confidence, and
// the retrieved search context into a reconsideration prompt.
func BuildSearchEscalationPrompt(q model.Question, firstAnswer string, confidence, threshold float64, searchContext string) string {
	return fmt.Sprintf(`注意：这是第二次回答此问题。

第一次回答的答案是：%s，置信度评估：%.2f（置信度较低于阈值 %.2f）

由于置信度较低，通过联网搜索获取到以下相关参考信息：

%s

---

%s

请结合搜索信息和首次回答的答案和对应的置信度，重新仔细分析题目，给出更准确的答案。`, firstAnswer, confidence, threshold, searchContext, BuildPrompt(q))
}

// BuildRetryEscalationPrompt is the search-free variant: only the first
// answer and confidence are surfaced to encourage reconsideration.
func BuildRetryEscalationPrompt(q model.Question, firstAnswer string, confidence, threshold float64) string {
	return fmt.Sprintf(`注意：这是第二次回答此问题。

第一次回答的答案是：%s，置信度评估：%.2f（置信度较低，低于阈值 %.2f）

由于置信度较低，请重新仔细分析题目，给出更准确的答案。

%s`, firstAnswer, confidence, threshold, BuildPrompt(q))
}
