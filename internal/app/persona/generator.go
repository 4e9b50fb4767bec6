// Package persona turns a user's journal into a short persona, a list of
// hobby tags and an MBTI guess. It shares the retry wrapper and error policy
// of the match requestor: every failure surfaces as *aicall.UnavailableError.
package persona

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/dalemusser/tribehub/internal/app/matching"
	"github.com/dalemusser/tribehub/internal/app/system/aicall"
	"github.com/dalemusser/tribehub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/tribehub/internal/domain/models"
	"go.uber.org/zap"
)

const (
	// MaxEntries is how many of the most recent journal entries are sent.
	MaxEntries = 20
	// MaxEntryRunes truncates each entry in the prompt.
	MaxEntryRunes   = 1000
	MaxPersonaRunes = 600
	MaxHobbies      = 10
)

// ErrNoJournal is returned when there is nothing to summarize.
var ErrNoJournal = errors.New("no journal entries to summarize")

// Summary is the cleaned generator output.
type Summary struct {
	Persona string   `json:"persona"`
	Hobbies []string `json:"hobbies"`
	MBTI    string   `json:"mbti"`
}

// Generator produces Summaries from journal entries.
type Generator struct {
	caller *aicall.Caller
	log    *zap.Logger
}

func NewGenerator(caller *aicall.Caller, logger *zap.Logger) *Generator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{caller: caller, log: logger}
}

const systemPrompt = `You read a person's private journal entries and describe them for a
friendship matching service. Write a warm, third-person persona of two or three
sentences focused on interests, values and social style. Never include names,
places of work, health details or anything that could identify the person.
List up to 10 hobbies as short lowercase tags. Guess a 4-letter MBTI type, or
return an empty string if the journal gives too little to go on.`

var schema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"persona", "hobbies", "mbti"},
	"properties": map[string]any{
		"persona": map[string]any{"type": "string"},
		"hobbies": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"mbti":    map[string]any{"type": "string"},
	},
}

// BuildPrompt renders entries (newest first) into the prompt.
func BuildPrompt(entries []models.JournalEntry) aicall.Prompt {
	if len(entries) > MaxEntries {
		entries = entries[:MaxEntries]
	}
	var b strings.Builder
	b.WriteString("Journal entries, newest first:\n")
	for _, e := range entries {
		fmt.Fprintf(&b, "- [%s] %s\n", e.CreatedAt.UTC().Format("2006-01-02"), htmlsanitize.TextLimit(e.Text, MaxEntryRunes))
	}
	return aicall.Prompt{
		System:     systemPrompt,
		User:       b.String(),
		SchemaName: "persona_summary",
		Schema:     schema,
	}
}

// Generate summarizes entries, which should be ordered newest first.
func (g *Generator) Generate(ctx context.Context, entries []models.JournalEntry) (Summary, error) {
	if len(entries) == 0 {
		return Summary{}, ErrNoJournal
	}
	raw, err := g.caller.Call(ctx, "persona", BuildPrompt(entries))
	if err != nil {
		return Summary{}, err
	}
	s, err := ParseSummary(raw)
	if err != nil {
		g.log.Warn("persona response rejected", zap.Error(err))
		return Summary{}, &aicall.UnavailableError{Op: "persona", Attempts: 1, Err: err}
	}
	return s, nil
}

// ParseSummary decodes and cleans model output. An empty persona is an
// error; an invalid MBTI code is dropped.
func ParseSummary(raw map[string]any) (Summary, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return Summary{}, fmt.Errorf("encode model output: %w", err)
	}
	var s Summary
	if err := json.Unmarshal(b, &s); err != nil {
		return Summary{}, fmt.Errorf("decode model output: %w", err)
	}

	s.Persona = htmlsanitize.TextLimit(s.Persona, MaxPersonaRunes)
	if s.Persona == "" {
		return Summary{}, errors.New("model returned an empty persona")
	}
	s.Hobbies = htmlsanitize.Tags(s.Hobbies)
	if len(s.Hobbies) > MaxHobbies {
		s.Hobbies = s.Hobbies[:MaxHobbies]
	}
	s.MBTI = strings.ToUpper(strings.TrimSpace(s.MBTI))
	if !matching.IsMBTI(s.MBTI) {
		s.MBTI = ""
	}
	return s, nil
}
