package generator

import (
	"context"
	"errors"
)

// Agent 负责把三类文本任务交给 LLM 并整理输出。
type Agent struct {
	llm LLMClient
}

func NewAgent(llm LLMClient) (*Agent, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Agent{llm: llm}, nil
}

// Article writes a full article on topic; words is an optional length hint.
func (a *Agent) Article(ctx context.Context, topic string, words int) (string, error) {
	return a.run(ctx, BuildArticlePrompt(topic, words))
}

// BlogTitles returns text containing five numbered titles for keyword.
func (a *Agent) BlogTitles(ctx context.Context, keyword string) (string, error) {
	return a.run(ctx, BuildBlogTitlesPrompt(keyword))
}

// ResumeReview returns a sectioned HR-style review of resumeText.
func (a *Agent) ResumeReview(ctx context.Context, resumeText string) (string, error) {
	return a.run(ctx, BuildResumeReviewPrompt(resumeText))
}

func (a *Agent) run(ctx context.Context, prompt Prompt) (string, error) {
	raw, err := a.llm.Complete(ctx, prompt)
	if err != nil {
		return "", err
	}
	return PostProcess(raw)
}
