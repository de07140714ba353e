// Package pitch drafts outreach emails from a scored audit using an LLM agent.
package pitch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"leadscout_backend/platform/config"

	"github.com/google/uuid"
	"google.golang.org/adk/agent"
	"google.golang.org/adk/agent/llmagent"
	"google.golang.org/adk/model"
	"google.golang.org/adk/model/gemini"
	"google.golang.org/adk/runner"
	"google.golang.org/adk/session"
	"google.golang.org/genai"
)

const appName = "audit-pitch-writer"

// ErrDisabled is returned when no model credentials are configured.
var ErrDisabled = errors.New("pitch generation is not configured")

// Input is the audit summary the pitch is written from.
type Input struct {
	AuditID          string
	BusinessName     string
	Domain           string
	Location         string
	LeadScore        int
	PresenceScore    int
	SEOScore         int
	AdsScore         int
	EngagementScore  int
	OpportunityScore int
	Recommendations  []string
}

// Generator runs a single-turn agent that writes the pitch.
type Generator struct {
	runner         *runner.Runner
	sessionService session.Service
	runMu          sync.Mutex
}

// New creates a generator backed by Gemini.
func New(ctx context.Context, cfg config.PitchConfig) (*Generator, error) {
	if !cfg.IsPitchEnabled() {
		return nil, ErrDisabled
	}

	llm, err := gemini.NewModel(ctx, cfg.GetGeminiModel(), &genai.ClientConfig{
		APIKey:  cfg.GetGeminiAPIKey(),
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini model: %w", err)
	}
	return NewWithModel(llm)
}

// NewWithModel creates a generator around any ADK model.
func NewWithModel(llm model.LLM) (*Generator, error) {
	adkAgent, err := llmagent.New(llmagent.Config{
		Name:        "AuditPitchWriter",
		Model:       llm,
		Description: "Writes short outreach emails from a marketing audit.",
		Instruction: systemPrompt,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pitch agent: %w", err)
	}

	sessionService := session.InMemoryService()
	r, err := runner.New(runner.Config{
		AppName:        appName,
		Agent:          adkAgent,
		SessionService: sessionService,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create pitch runner: %w", err)
	}

	return &Generator{runner: r, sessionService: sessionService}, nil
}

// Generate writes the pitch for one audit.
func (g *Generator) Generate(ctx context.Context, in Input) (string, error) {
	g.runMu.Lock()
	defer g.runMu.Unlock()

	sessionID := uuid.New().String()
	userID := "audit-" + in.AuditID

	if _, err := g.sessionService.Create(ctx, &session.CreateRequest{
		AppName:   appName,
		UserID:    userID,
		SessionID: sessionID,
	}); err != nil {
		return "", fmt.Errorf("pitch: create session: %w", err)
	}
	defer func() {
		_ = g.sessionService.Delete(ctx, &session.DeleteRequest{
			AppName:   appName,
			UserID:    userID,
			SessionID: sessionID,
		})
	}()

	userMessage := &genai.Content{
		Role:  "user",
		Parts: []*genai.Part{{Text: BuildPrompt(in)}},
	}

	var out strings.Builder
	for event, err := range g.runner.Run(ctx, userID, sessionID, userMessage, agent.RunConfig{StreamingMode: agent.StreamingModeNone}) {
		if err != nil {
			return "", fmt.Errorf("pitch: run failed: %w", err)
		}
		if event.Content == nil {
			continue
		}
		for _, part := range event.Content.Parts {
			out.WriteString(part.Text)
		}
	}

	text := strings.TrimSpace(out.String())
	if text == "" {
		return "", errors.New("pitch: model returned no text")
	}
	return text, nil
}

// BuildPrompt renders the audit facts the model may use.
func BuildPrompt(in Input) string {
	recs := in.Recommendations
	if len(recs) > 3 {
		recs = recs[:3]
	}
	lines := make([]string, 0, len(recs))
	for _, r := range recs {
		lines = append(lines, "- "+r)
	}

	return fmt.Sprintf(`Business: %s
Website: %s
Market: %s

Scores (0-100):
- Lead score: %d
- Local presence: %d
- SEO: %d
- Ads activity: %d
- Engagement: %d
- Opportunity: %d

Top findings:
%s

Task:
Write a cold outreach email to the practice owner offering marketing help.
Rules:
- Plain text, under 150 words, with a subject line first.
- Mention at most two findings, in plain language.
- Do not invent numbers beyond the ones above.
`, in.BusinessName, in.Domain, in.Location,
		in.LeadScore, in.PresenceScore, in.SEOScore, in.AdsScore, in.EngagementScore, in.OpportunityScore,
		strings.Join(lines, "\n"))
}

const systemPrompt = "You write concise, friendly outreach emails for a healthcare marketing agency. Use only the facts provided."
