package generator

import (
	"fmt"
	"strings"
)

// Prompt 表示发送给 LLM 的一次请求。
type Prompt struct {
	System      string
	User        string
	MaxTokens   int64
	Temperature float64
}

// Token budgets and temperatures per task.
const (
	articleMaxTokens   = 1200
	articleTemperature = 0.7
	titlesMaxTokens    = 200
	titlesTemperature  = 0.4
	reviewMaxTokens    = 800
	reviewTemperature  = 0.4
)

// BuildArticlePrompt 生成完整文章的提示词；words<=0 时不限定字数。
func BuildArticlePrompt(topic string, words int) Prompt {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Write a complete article on: %q\n", topic))
	sb.WriteString("- Add a title\n")
	sb.WriteString("- Add intro\n")
	sb.WriteString("- 5+ paragraphs\n")
	sb.WriteString("- Use headings\n")
	if words > 0 {
		sb.WriteString(fmt.Sprintf("- Aim for about %d words\n", words))
	}
	sb.WriteString("- Finish properly")

	return Prompt{
		System:      "Write complete, detailed articles only.",
		User:        sb.String(),
		MaxTokens:   articleMaxTokens,
		Temperature: articleTemperature,
	}
}

// BuildBlogTitlesPrompt asks for five numbered titles, one per line.
func BuildBlogTitlesPrompt(keyword string) Prompt {
	user := fmt.Sprintf("Generate 5 full blog titles for: %s\n- Number them 1 to 5\n- Each title on new line", keyword)
	return Prompt{
		System:      "Generate only complete blog titles, no explanation.",
		User:        user,
		MaxTokens:   titlesMaxTokens,
		Temperature: titlesTemperature,
	}
}

// BuildResumeReviewPrompt 生成简历点评提示词，resumeText 应已截断。
func BuildResumeReviewPrompt(resumeText string) Prompt {
	var sb strings.Builder
	sb.WriteString("Review this resume like an HR:\n")
	sb.WriteString(resumeText)
	sb.WriteString("\n\nFORMAT:\n")
	sb.WriteString("Summary:\n- 3 sentences\n\n")
	sb.WriteString("Strengths:\n- bullet points\n\n")
	sb.WriteString("Weaknesses:\n- bullet points\n\n")
	sb.WriteString("Suggestions:\n- bullet points\n\n")
	sb.WriteString("ATS Issues:\n- bullet points\n")

	return Prompt{
		User:        sb.String(),
		MaxTokens:   reviewMaxTokens,
		Temperature: reviewTemperature,
	}
}
