package matching

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dalemusser/tribehub/internal/app/system/aicall"
	"github.com/dalemusser/tribehub/internal/app/system/htmlsanitize"
	"go.uber.org/zap"
)

// MaxMatches is the most matches a single request returns.
const MaxMatches = 3

// ErrMatchingUnavailable is returned (wrapped in *aicall.UnavailableError)
// when the model could not produce matches.
var ErrMatchingUnavailable = aicall.ErrUnavailable

// Match is one model-proposed match.
type Match struct {
	UserID             string `json:"userId"`
	CompatibilityScore int    `json:"compatibilityScore"`
	Persona            string `json:"persona"`
	MatchReason        string `json:"matchReason"`
}

// RequestInput is what the requestor sends to the model. Candidates must
// already be ranked; their order is how priority reaches the model.
type RequestInput struct {
	Persona    string
	Location   string
	Candidates []ScoredCandidate
	Gender     GenderMode
}

// Requestor turns a ranked candidate list into at most MaxMatches matches.
type Requestor struct {
	caller *aicall.Caller
	log    *zap.Logger
}

// NewRequestor builds a Requestor on top of a retrying caller.
func NewRequestor(caller *aicall.Caller, logger *zap.Logger) *Requestor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Requestor{caller: caller, log: logger}
}

const matchSystemPrompt = `You match people into small in-person groups ("tribes").
You receive the requesting user's persona and location and a list of candidates,
one per line, formatted as id::persona::location. The list is ordered by priority:
prefer earlier candidates when compatibility is similar.
Return at most 3 candidates. For each give the candidate id exactly as given,
a compatibility score from 0 to 100, the candidate persona, and a one-sentence reason.`

// SerializeCandidates renders candidates as id::persona::location lines,
// preserving order.
func SerializeCandidates(cands []ScoredCandidate) string {
	lines := make([]string, len(cands))
	for i, c := range cands {
		lines[i] = c.User.ID.Hex() + "::" + oneLine(c.User.Persona) + "::" + oneLine(c.User.Location)
	}
	return strings.Join(lines, "\n")
}

// oneLine flattens s to a single line with no "::" so it cannot split a
// candidate record.
func oneLine(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	for strings.Contains(s, "::") {
		s = strings.ReplaceAll(s, "::", ":")
	}
	return s
}

func genderInstruction(g GenderMode) string {
	switch g {
	case GenderSame:
		return "Same Gender: all candidates already share the user's gender."
	case GenderMixed:
		return "Mixed Gender: keep the resulting group balanced 1:1 between genders."
	default:
		return "No Preference: gender is not a factor."
	}
}

// BuildPrompt assembles the model prompt for in.
func BuildPrompt(in RequestInput) aicall.Prompt {
	var b strings.Builder
	fmt.Fprintf(&b, "User persona: %s\n", oneLine(in.Persona))
	fmt.Fprintf(&b, "User location: %s\n", oneLine(in.Location))
	fmt.Fprintf(&b, "Gender preference: %s\n", genderInstruction(in.Gender))
	b.WriteString("Candidates:\n")
	b.WriteString(SerializeCandidates(in.Candidates))

	return aicall.Prompt{
		System:     matchSystemPrompt,
		User:       b.String(),
		SchemaName: "tribe_matches",
		Schema:     matchSchema,
	}
}

var matchSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"required":             []string{"matches"},
	"properties": map[string]any{
		"matches": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":                 "object",
				"additionalProperties": false,
				"required":             []string{"userId", "compatibilityScore", "persona", "matchReason"},
				"properties": map[string]any{
					"userId":             map[string]any{"type": "string"},
					"compatibilityScore": map[string]any{"type": "integer"},
					"persona":            map[string]any{"type": "string"},
					"matchReason":        map[string]any{"type": "string"},
				},
			},
		},
	},
}

// Request asks the model for matches. With no candidates it returns an
// empty list without calling the model. Failures come back as an error
// satisfying errors.Is(err, ErrMatchingUnavailable).
func (r *Requestor) Request(ctx context.Context, in RequestInput) ([]Match, error) {
	if len(in.Candidates) == 0 {
		return []Match{}, nil
	}

	raw, err := r.caller.Call(ctx, "match", BuildPrompt(in))
	if err != nil {
		return nil, err
	}

	matches, err := ParseMatches(raw, in.Candidates)
	if err != nil {
		r.log.Warn("match response rejected", zap.Error(err))
		return nil, &aicall.UnavailableError{Op: "match", Attempts: 1, Err: err}
	}
	return matches, nil
}

// ParseMatches decodes the model output, drops entries that name unknown
// candidates or carry a score outside 0..100, strips markup from the text
// fields, and truncates to MaxMatches keeping the model's order.
func ParseMatches(raw map[string]any, cands []ScoredCandidate) ([]Match, error) {
	b, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("encode model output: %w", err)
	}
	var payload struct {
		Matches []Match `json:"matches"`
	}
	if err := json.Unmarshal(b, &payload); err != nil {
		return nil, fmt.Errorf("decode model output: %w", err)
	}

	known := make(map[string]struct{}, len(cands))
	for _, c := range cands {
		known[c.User.ID.Hex()] = struct{}{}
	}

	out := make([]Match, 0, MaxMatches)
	seen := make(map[string]struct{}, MaxMatches)
	for _, m := range payload.Matches {
		if _, ok := known[m.UserID]; !ok {
			continue
		}
		if _, dup := seen[m.UserID]; dup {
			continue
		}
		if m.CompatibilityScore < 0 || m.CompatibilityScore > 100 {
			continue
		}
		seen[m.UserID] = struct{}{}
		m.Persona = htmlsanitize.Text(m.Persona)
		m.MatchReason = htmlsanitize.Text(m.MatchReason)
		out = append(out, m)
		if len(out) == MaxMatches {
			break
		}
	}
	return out, nil
}
