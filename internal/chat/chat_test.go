package chat

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"marketmind/internal/models"
)

type fakeSender struct {
	reply models.ChatResponse
	err   error
	got   models.ChatRequest
	calls int
}

func (f *fakeSender) Chat(_ context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	f.calls++
	f.got = req
	return f.reply, f.err
}

func assistantReply(content string) models.ChatResponse {
	return models.ChatResponse{Message: models.ChatMessage{Role: models.RoleAssistant, Content: content}}
}

func TestSendPrependsSystemPromptAndAppendsReply(t *testing.T) {
	fake := &fakeSender{reply: assistantReply("You're doing fine.")}
	m := NewManager(fake, zerolog.Nop())

	m.Send(context.Background(), "  am I overtrading?  ")

	if len(fake.got.Messages) != 2 {
		t.Fatalf("expected system + user message, got %d", len(fake.got.Messages))
	}
	if fake.got.Messages[0].Role != models.RoleSystem {
		t.Errorf("first message should be system prompt, got %s", fake.got.Messages[0].Role)
	}
	if fake.got.Messages[1].Content != "am I overtrading?" {
		t.Errorf("user message should be trimmed, got %q", fake.got.Messages[1].Content)
	}
	if fake.got.MaxTokens != defaultMaxTokens {
		t.Errorf("max tokens = %d", fake.got.MaxTokens)
	}

	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("transcript should hold user + assistant, got %d", len(msgs))
	}
	if msgs[0].Role != models.RoleUser || msgs[1].Content != "You're doing fine." {
		t.Errorf("unexpected transcript: %+v", msgs)
	}
}

func TestSendDropsBlankMessages(t *testing.T) {
	fake := &fakeSender{reply: assistantReply("ok")}
	m := NewManager(fake, zerolog.Nop())

	m.Send(context.Background(), "   ")
	if fake.calls != 0 {
		t.Error("blank message should not hit the backend")
	}
	if len(m.Messages()) != 0 {
		t.Error("blank message should not enter the transcript")
	}
}

func TestSendFailureAppendsApology(t *testing.T) {
	fake := &fakeSender{err: errors.New("boom")}
	m := NewManager(fake, zerolog.Nop())

	m.Send(context.Background(), "hello")

	msgs := m.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected user + apology, got %d", len(msgs))
	}
	if msgs[1].Content != connectFailureReply {
		t.Errorf("unexpected failure reply: %q", msgs[1].Content)
	}
}

func TestSendKeepsHistory(t *testing.T) {
	fake := &fakeSender{reply: assistantReply("first")}
	m := NewManager(fake, zerolog.Nop())

	m.Send(context.Background(), "one")
	fake.reply = assistantReply("second")
	m.Send(context.Background(), "two")

	// Second call carries system + full history + new user message.
	if len(fake.got.Messages) != 4 {
		t.Fatalf("expected 4 messages on second send, got %d", len(fake.got.Messages))
	}
	if fake.got.Messages[1].Content != "one" || fake.got.Messages[2].Content != "first" {
		t.Errorf("history not forwarded: %+v", fake.got.Messages)
	}
}

func TestClear(t *testing.T) {
	fake := &fakeSender{reply: assistantReply("hi")}
	m := NewManager(fake, zerolog.Nop())
	m.Send(context.Background(), "hello")
	m.Clear()
	if len(m.Messages()) != 0 {
		t.Error("clear should empty the transcript")
	}
}

func TestAddSuggestions(t *testing.T) {
	m := NewManager(nil, zerolog.Nop())
	m.AddSuggestions([]string{"a", "b"})

	msgs := m.Messages()
	if len(msgs) != 1 {
		t.Fatalf("expected one suggestion message, got %d", len(msgs))
	}
	if msgs[0].Role != models.RoleAssistant || msgs[0].Content != suggestionIntro {
		t.Errorf("unexpected suggestion message: %+v", msgs[0])
	}
	if !reflect.DeepEqual(msgs[0].Suggestions, []string{"a", "b"}) {
		t.Errorf("suggestions = %v", msgs[0].Suggestions)
	}

	m.AddSuggestions(nil)
	if len(m.Messages()) != 1 {
		t.Error("empty suggestion list should be ignored")
	}
}

func TestDeriveSuggestions(t *testing.T) {
	cases := []struct {
		name            string
		marketContext   string
		behaviorContext string
		want            []string
	}{
		{
			name:          "drop without behavior",
			marketContext: "EURUSD dropped 3.0%. Sharp selloff.",
			want: []string{
				"How do I handle losses emotionally?",
				"Can you analyze my trading patterns?",
				"What's the best way to improve my trading mindset?",
			},
		},
		{
			name:            "rise with revenge pattern",
			marketContext:   "EURUSD rose 3.0%. Strong rally.",
			behaviorContext: "Detected 1 risk pattern (revenge trade).",
			want: []string{
				"How do I manage greed when markets are rising?",
				"How can I avoid revenge trading?",
				"What's the best way to improve my trading mindset?",
			},
		},
		{
			name:            "streak pattern",
			marketContext:   "EURUSD rose 3.0%.",
			behaviorContext: "Detected 1 risk pattern (loss streak).",
			want: []string{
				"How do I manage greed when markets are rising?",
				"How do I stay disciplined after a winning streak?",
				"What's the best way to improve my trading mindset?",
			},
		},
		{
			name:            "flat market with other pattern",
			marketContext:   "EURUSD held steady.",
			behaviorContext: "Detected 1 risk pattern (oversizing).",
			want: []string{
				"What should I focus on now?",
				"What patterns should I be aware of?",
				"What's the best way to improve my trading mindset?",
			},
		},
		{
			name:            "revenge wins over streak",
			marketContext:   "EURUSD dropped 3.0%.",
			behaviorContext: "revenge trading after a loss streak",
			want: []string{
				"How do I handle losses emotionally?",
				"How can I avoid revenge trading?",
				"What's the best way to improve my trading mindset?",
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := DeriveSuggestions(tc.marketContext, tc.behaviorContext)
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("got %v\nwant %v", got, tc.want)
			}
			if len(got) > 3 {
				t.Errorf("suggestion list exceeds 3: %d", len(got))
			}
		})
	}
}
