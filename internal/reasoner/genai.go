package reasoner

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/joeunion/pidog/internal/cogerr"
	"github.com/joeunion/pidog/internal/logging"
)

// GenAIReasoner implements ExternalReasoner against Google's Gemini API.
type GenAIReasoner struct {
	client *genai.Client
	model  string
}

// NewGenAIReasoner constructs a reasoner bound to the given model. apiKey
// must be non-empty; callers typically source it from Config.ReasonerAPIKey.
func NewGenAIReasoner(ctx context.Context, apiKey, model string) (*GenAIReasoner, error) {
	if apiKey == "" {
		return nil, cogerr.NewValidation("api_key", "reasoner API key is required")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}

	timer := logging.StartTimer(logging.CategoryReasoner, "NewGenAIReasoner")
	defer timer.Stop()

	client, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, cogerr.NewReasoner("new_client", err)
	}
	return &GenAIReasoner{client: client, model: model}, nil
}

// Think sends a single-turn prompt with a system instruction and returns the
// concatenated text of the model's response.
func (r *GenAIReasoner) Think(ctx context.Context, systemPrompt, prompt string) (string, error) {
	timer := logging.StartTimer(logging.CategoryReasoner, "Think")
	defer timer.Stop()

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	contents := []*genai.Content{genai.NewContentFromText(prompt, genai.RoleUser)}
	cfg := &genai.GenerateContentConfig{}
	if systemPrompt != "" {
		cfg.SystemInstruction = genai.NewContentFromText(systemPrompt, genai.RoleUser)
	}

	result, err := r.client.Models.GenerateContent(ctx, r.model, contents, cfg)
	if err != nil {
		logging.Get(logging.CategoryReasoner).Error("Think: GenerateContent failed: %v", err)
		return "", cogerr.NewReasoner("generate_content", err)
	}
	if len(result.Candidates) == 0 || result.Candidates[0].Content == nil {
		return "", cogerr.NewReasoner("generate_content", fmt.Errorf("no candidates returned"))
	}

	var text string
	for _, part := range result.Candidates[0].Content.Parts {
		text += part.Text
	}
	logging.Get(logging.CategoryReasoner).Debug("Think: model=%s prompt_len=%d response_len=%d", r.model, len(prompt), len(text))
	return text, nil
}
