package provider

import (
	"context"

	"ai_creation_broker/document"
)

// DefaultTextProvider labels text-generation failures.
const DefaultTextProvider = "Groq"

// Writer is the text-generation side; *generator.Agent implements it.
type Writer interface {
	Article(ctx context.Context, topic string, words int) (string, error)
	BlogTitles(ctx context.Context, keyword string) (string, error)
	ResumeReview(ctx context.Context, resumeText string) (string, error)
}

// TextArticle generates a full article from Input.Prompt and Input.Length.
type TextArticle struct {
	Writer Writer
	Name   string
}

func (TextArticle) Capability() Capability { return CapArticle }

func (a TextArticle) Invoke(ctx context.Context, in Input) (Output, error) {
	text, err := a.Writer.Article(ctx, in.Prompt, in.Length)
	if err != nil {
		return Output{}, fail(nameOr(a.Name, DefaultTextProvider), err)
	}
	return Output{Content: text}, nil
}

// BlogTitles generates five numbered titles for Input.Prompt.
type BlogTitles struct {
	Writer Writer
	Name   string
}

func (BlogTitles) Capability() Capability { return CapBlogTitles }

func (a BlogTitles) Invoke(ctx context.Context, in Input) (Output, error) {
	text, err := a.Writer.BlogTitles(ctx, in.Prompt)
	if err != nil {
		return Output{}, fail(nameOr(a.Name, DefaultTextProvider), err)
	}
	return Output{Content: text}, nil
}

// ResumeReview extracts Input.Document, keeps the first CharLimit
// characters and asks for a sectioned review.
type ResumeReview struct {
	Extractor document.Extractor
	Writer    Writer
	CharLimit int
	Name      string
}

func (ResumeReview) Capability() Capability { return CapResumeReview }

func (a ResumeReview) Invoke(ctx context.Context, in Input) (Output, error) {
	text, err := a.Extractor.Extract(ctx, in.Document)
	if err != nil {
		return Output{}, fail("PDF", err)
	}
	limit := a.CharLimit
	if limit <= 0 {
		limit = document.DefaultCharLimit
	}
	review, err := a.Writer.ResumeReview(ctx, document.Truncate(text, limit))
	if err != nil {
		return Output{}, fail(nameOr(a.Name, DefaultTextProvider), err)
	}
	return Output{Content: review}, nil
}

func nameOr(name, def string) string {
	if name == "" {
		return def
	}
	return name
}
