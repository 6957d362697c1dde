package llm

import (
	"context"
	"fmt"
	"strings"

	"vidfetch/internal/language"
	"vidfetch/internal/services"
)

// TranslationPrompt is the system prompt for single caption line translation.
const TranslationPrompt = `You translate one line of a video caption.
Translate the text the user sends into the requested target language.
Keep the meaning, tone, and any speaker labels or sound cues such as [music].
Do not add notes, quotes, or explanations. Do not split the text into several lines.
Respond with JSON only, in the form {"translation": "<translated text>"}.`

type translationPayload struct {
	Translation string `json:"translation"`
}

// Translate returns text rendered in target. source may be language.Auto, in
// which case the model detects it.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}
	if strings.TrimSpace(target) == "" {
		return "", services.Wrap(services.ErrValidation, "llm", "translate", "target language required", nil)
	}

	content, err := c.CompleteJSON(ctx, TranslationPrompt, buildTranslationRequest(text, source, target))
	if err != nil {
		return "", err
	}
	var parsed translationPayload
	if err := DecodeLLMJSON(content, &parsed); err != nil {
		return "", services.Wrap(services.ErrParse, "llm", "translate", "parse payload", err)
	}
	return strings.TrimSpace(parsed.Translation), nil
}

func buildTranslationRequest(text, source, target string) string {
	from := "Detect the source language."
	if src := strings.TrimSpace(source); src != "" && !strings.EqualFold(src, language.Auto) {
		from = fmt.Sprintf("Source language: %s (%s).", language.Describe(src), src)
	}
	var b strings.Builder
	b.WriteString(from)
	fmt.Fprintf(&b, "\nTarget language: %s (%s).\nText:\n%s", language.Describe(target), strings.TrimSpace(target), text)
	return b.String()
}
