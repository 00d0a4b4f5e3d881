package genai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/sehatlabs/sehat/internal/config"
	"github.com/sehatlabs/sehat/internal/domain"
)

var errEmptyCompletion = errors.New("model returned no choices")

// OpenAIGenerator implements Generator over the OpenAI chat API.
type OpenAIGenerator struct {
	client  openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIGenerator creates a generator from configuration.
func NewOpenAIGenerator(cfg config.OpenAIConfig) *OpenAIGenerator {
	return &OpenAIGenerator{
		client:  openai.NewClient(option.WithAPIKey(cfg.APIKey)),
		model:   cfg.Model,
		timeout: cfg.Timeout,
	}
}

func languageName(lang domain.Language) string {
	if lang == domain.LangHI {
		return "Hindi"
	}
	return "English"
}

func (g *OpenAIGenerator) complete(ctx context.Context, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(system),
			openai.UserMessage(prompt),
		},
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errEmptyCompletion
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

func medLines(meds []*domain.Medication) string {
	var b strings.Builder
	for _, med := range meds {
		fmt.Fprintf(&b, "- %s, %s, %s\n", med.Name, med.Dosage, med.Schedule)
	}
	return b.String()
}

// CheckInteractions reviews a medication list for known interactions.
func (g *OpenAIGenerator) CheckInteractions(ctx context.Context, meds []*domain.Medication, lang domain.Language) (*InteractionReport, error) {
	system := "You are a cautious medication-safety assistant for elderly users. " +
		"Answer ONLY with a JSON object: {\"has_interactions\": bool, " +
		"\"interactions\": [string], \"summary\": string}. Write the summary in " +
		languageName(lang) + ", in short reassuring sentences, and always advise " +
		"confirming with a doctor or pharmacist."

	prompt := "Check this medication list for known interactions:\n" + medLines(meds)

	raw, err := g.complete(ctx, system, prompt)
	if err != nil {
		return nil, err
	}

	var report InteractionReport
	if err := json.Unmarshal([]byte(stripFences(raw)), &report); err != nil {
		return nil, fmt.Errorf("parse interaction report: %w", err)
	}
	return &report, nil
}

// Recommend produces short health advice for the user.
func (g *OpenAIGenerator) Recommend(ctx context.Context, user *domain.User, meds []*domain.Medication, readings []*domain.HealthRecord, lang domain.Language) (string, error) {
	system := "You are a friendly health companion for elderly users. Reply in " +
		languageName(lang) + " with 3-4 short, encouraging sentences of general " +
		"wellness advice. Never diagnose; suggest seeing a doctor for anything serious."

	var b strings.Builder
	fmt.Fprintf(&b, "User: %s, age %d.\nMedications:\n%s", user.Name, user.Age, medLines(meds))
	if len(readings) > 0 {
		b.WriteString("Recent readings (newest first):\n")
		for _, rec := range readings {
			fmt.Fprintf(&b, "- %s (%s)\n", rec.Value, rec.RecordedAt.Format("2006-01-02"))
		}
	}

	return g.complete(ctx, system, b.String())
}

// stripFences removes a markdown code fence around a JSON payload, which
// some models add despite instructions.
func stripFences(raw string) string {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "```") {
		return raw
	}
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(strings.TrimSpace(raw), "```")
	return strings.TrimSpace(raw)
}
