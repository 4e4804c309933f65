// Package content generates persona-voiced social posts from market
// and behavior context.
package content

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"marketmind/internal/models"
)

type personaConfig struct {
	voice string
	style string
}

var personaPrompts = map[models.Persona]personaConfig{
	models.PersonaCalmAnalyst: {
		voice: "Measured, thoughtful, reassuring. Uses phrases like 'In times like this...', 'What the data shows us...', 'Clarity over reactivity.'",
		style: "Professional yet approachable. Focuses on perspective and long-term thinking.",
	},
	models.PersonaDataNerd: {
		voice: "Analytical, precise, slightly enthusiastic about numbers. Uses phrases like 'The numbers don't lie...', 'Here's what the data shows...', 'Statistically speaking...'",
		style: "Data-driven with interesting statistics. Makes complex info accessible.",
	},
	models.PersonaTradingCoach: {
		voice: "Supportive, experienced, mentoring. Uses phrases like 'I've seen this before...', 'This is where discipline matters...', 'The best traders...'",
		style: "Shares wisdom from experience. Focuses on mindset and discipline.",
	},
}

// Completer is the single-turn LLM surface the generator needs.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Generator produces platform-sized content pieces. A nil completer
// yields deterministic per-persona fallback text.
type Generator struct {
	llm    Completer
	logger zerolog.Logger
}

func NewGenerator(llm Completer, logger zerolog.Logger) *Generator {
	return &Generator{
		llm:    llm,
		logger: logger.With().Str("component", "content").Logger(),
	}
}

// Generate builds one content piece for the persona/platform pair.
func (g *Generator) Generate(ctx context.Context, req models.ContentRequest) (models.ContentResponse, error) {
	cfg, ok := personaPrompts[req.Persona]
	if !ok {
		return models.ContentResponse{}, fmt.Errorf("unknown persona %q", req.Persona)
	}
	if !req.Platform.Valid() {
		return models.ContentResponse{}, fmt.Errorf("unknown platform %q", req.Platform)
	}

	limit := req.Platform.CharLimit()
	prompt := buildPrompt(req, cfg, limit)

	text := g.complete(ctx, prompt)
	hashtags := ExtractHashtags(text)
	if len(text) > limit {
		text = Truncate(text, limit)
	}
	text = strings.TrimSpace(text)

	return models.ContentResponse{
		Persona:   req.Persona,
		Platform:  req.Platform,
		Content:   text,
		Hashtags:  hashtags,
		CharCount: len(text),
	}, nil
}

func (g *Generator) complete(ctx context.Context, prompt string) string {
	if g.llm == nil {
		return fallbackContent(prompt)
	}
	out, err := g.llm.Complete(ctx, prompt)
	if err != nil {
		g.logger.Warn().Err(err).Msg("content generation failed, using fallback")
		return fallbackContent(prompt)
	}
	return out
}

func buildPrompt(req models.ContentRequest, cfg personaConfig, limit int) string {
	behaviorSection := ""
	if req.BehaviorContext != "" {
		behaviorSection = "\nTrader Insight: " + req.BehaviorContext
	}

	guidance := "Write a thoughtful LinkedIn post. 2-3 short paragraphs. Professional tone. Include a call-to-action or reflection question at the end."
	if req.Platform == models.PlatformTwitter {
		guidance = "Write a punchy, engaging tweet. Maximum 280 characters including hashtags. No emojis unless essential."
	}

	return fmt.Sprintf(`You are a social media content creator with the following persona:

PERSONA: %s
VOICE: %s
STYLE: %s

MARKET CONTEXT:
%s%s

PLATFORM: %s
%s

CHARACTER LIMIT: %d

Write engaging content that:
1. Feels authentic (not AI-generated)
2. Provides value to traders
3. Stays brand-safe (no predictions, no financial advice)
4. Matches the persona voice exactly
5. Includes 2-3 relevant hashtags at the end

Output ONLY the post content with hashtags. No explanations.`,
		personaTitle(req.Persona), cfg.voice, cfg.style,
		req.MarketContext, behaviorSection,
		platformTitle(req.Platform), guidance, limit)
}

func personaTitle(p models.Persona) string {
	parts := strings.Split(string(p), "_")
	for i, part := range parts {
		if part != "" {
			parts[i] = strings.ToUpper(part[:1]) + part[1:]
		}
	}
	return strings.Join(parts, " ")
}

func platformTitle(p models.Platform) string {
	s := string(p)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// fallbackContent keys off the persona named in the prompt.
func fallbackContent(prompt string) string {
	lower := strings.ToLower(prompt)
	switch {
	case strings.Contains(lower, "calm analyst"):
		return "Markets moved sharply today. In times like this, remember: clarity over reactivity. The traders who thrive aren't the ones who react fastest—they're the ones who think clearest.\n\nWhat we're seeing is volatility, not the end of the world. Step back. Breathe. Then decide."
	case strings.Contains(lower, "data nerd"):
		return "The numbers don't lie: we just saw a 3% move with 2.5x average volume. RSI hit oversold territory at 28.\n\nStatistically speaking, moves of this magnitude occur roughly 2-3 times per quarter. Context matters more than panic."
	case strings.Contains(lower, "trading coach"):
		return "I've seen this pattern hundreds of times. Sharp drop, high volume, everyone panicking.\n\nThis is exactly where discipline separates the professionals from the amateurs. The best traders I know? They're not trading right now. They're observing."
	default:
		return "Markets are moving. Stay focused on your process, not the noise."
	}
}

// ExtractHashtags pulls #words out of content, stripping trailing
// punctuation.
func ExtractHashtags(content string) []string {
	var tags []string
	for _, word := range strings.Fields(content) {
		if strings.HasPrefix(word, "#") {
			tags = append(tags, strings.Trim(word, ".,!?"))
		}
	}
	return tags
}

// Truncate cuts content to the limit, preferring a sentence or line
// boundary when one exists past the midpoint.
func Truncate(content string, limit int) string {
	if len(content) <= limit {
		return content
	}

	truncated := content[:limit-3]
	cut := strings.LastIndex(truncated, ".")
	if nl := strings.LastIndex(truncated, "\n"); nl > cut {
		cut = nl
	}
	if cut > limit/2 {
		return content[:cut+1]
	}
	return truncated + "..."
}
