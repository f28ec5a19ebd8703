package dispatch

import (
	"fmt"

	"ai_creation_broker/creation"
	"ai_creation_broker/provider"
	"ai_creation_broker/usage"
)

// Prompts stored for image edits, which carry no user prompt.
const (
	PromptBackgroundRemoval = "Remove background from image"
	promptObjectRemoval     = "Removed %s from image"
)

// rule is the per-capability policy.
type rule struct {
	tier usage.Tier
	// validate returns a user-facing message when input is unusable.
	validate func(provider.Input) string
	// record describes the Creation to write; nil writes nothing.
	record func(provider.Input) (prompt string, typ creation.Type, publish bool)
	// consumesQuota marks features whose use advances free_usage.
	consumesQuota bool
}

func defaultRules() map[provider.Capability]rule {
	return map[provider.Capability]rule{
		provider.CapArticle: {
			tier:     usage.TierFree,
			validate: requirePrompt(MsgPromptRequired),
			record: func(in provider.Input) (string, creation.Type, bool) {
				return in.Prompt, creation.TypeArticle, false
			},
			consumesQuota: true,
		},
		// Titles are gated by the free quota but neither stored nor counted.
		provider.CapBlogTitles: {
			tier:     usage.TierFree,
			validate: requirePrompt(MsgKeywordRequired),
		},
		provider.CapImageGenerate: {
			tier:     usage.TierPremium,
			validate: requirePrompt(MsgPromptRequired),
			record: func(in provider.Input) (string, creation.Type, bool) {
				return in.Prompt, creation.TypeImage, in.Publish
			},
		},
		provider.CapBackgroundRemove: {
			tier:     usage.TierPremium,
			validate: requireImage,
			record: func(provider.Input) (string, creation.Type, bool) {
				return PromptBackgroundRemoval, creation.TypeImage, false
			},
		},
		provider.CapObjectRemove: {
			tier: usage.TierPremium,
			validate: func(in provider.Input) string {
				if msg := requireImage(in); msg != "" {
					return msg
				}
				if in.Object == "" {
					return MsgObjectRequired
				}
				return ""
			},
			record: func(in provider.Input) (string, creation.Type, bool) {
				return ObjectRemovalPrompt(in.Object), creation.TypeImage, false
			},
		},
		// Reviews have no Creation type and are returned only.
		provider.CapResumeReview: {
			tier: usage.TierUnrestricted,
			validate: func(in provider.Input) string {
				if len(in.Document) == 0 {
					return MsgResumeRequired
				}
				return ""
			},
		},
	}
}

// ObjectRemovalPrompt is the prompt stored for an object removal.
func ObjectRemovalPrompt(object string) string {
	return fmt.Sprintf(promptObjectRemoval, object)
}

func requirePrompt(msg string) func(provider.Input) string {
	return func(in provider.Input) string {
		if in.Prompt == "" {
			return msg
		}
		return ""
	}
}

func requireImage(in provider.Input) string {
	if len(in.Image) == 0 {
		return MsgImageRequired
	}
	return ""
}
