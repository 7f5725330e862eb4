package dialog

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/SaratA8717/Botbuilder-samples/internal/model/activity"
)

// PromptOptions configures one prompt invocation.
type PromptOptions struct {
	Prompt      string   `json:"prompt,omitempty"`
	RetryPrompt string   `json:"retryPrompt,omitempty"`
	Choices     []string `json:"choices,omitempty"`
}

// Recognized is what a validator sees for one reply.
type Recognized[T any] struct {
	Succeeded bool
	Value     T
	// Attempts counts the replies received by this prompt, this one included.
	Attempts int
	Options  PromptOptions
}

// Validator decides whether a recognized reply is accepted. Without a
// validator every successfully recognized reply is accepted.
type Validator[T any] func(ctx context.Context, r Recognized[T]) (bool, error)

// FoundChoice is the result of a ChoicePrompt.
type FoundChoice struct {
	Value string `json:"value"`
	Index int    `json:"index"`
}

// Prompt asks the user for one value of type T and ends with it as result.
type Prompt[T any] struct {
	id        string
	validator Validator[T]
	recognize func(act *activity.Activity, opts PromptOptions) (T, bool)
	render    func(text string, opts PromptOptions) *activity.Activity
}

type promptState struct {
	Options  PromptOptions `json:"options"`
	Attempts int           `json:"attempts"`
}

// NewTextPrompt accepts any non-empty message text.
func NewTextPrompt(id string, validator Validator[string]) *Prompt[string] {
	return &Prompt[string]{
		id:        id,
		validator: validator,
		recognize: func(act *activity.Activity, _ PromptOptions) (string, bool) {
			text := strings.TrimSpace(act.Text)
			return text, text != ""
		},
		render: renderText,
	}
}

var numberPattern = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// NewNumberPrompt accepts the first number found in the message text.
func NewNumberPrompt(id string, validator Validator[float64]) *Prompt[float64] {
	return &Prompt[float64]{
		id:        id,
		validator: validator,
		recognize: func(act *activity.Activity, _ PromptOptions) (float64, bool) {
			m := numberPattern.FindString(act.Text)
			if m == "" {
				return 0, false
			}
			n, err := strconv.ParseFloat(m, 64)
			return n, err == nil
		},
		render: renderText,
	}
}

// NewChoicePrompt accepts one of PromptOptions.Choices, by value, by 1-based
// index or by the best unambiguous word match. Choices are offered as
// suggested actions.
func NewChoicePrompt(id string, validator Validator[FoundChoice]) *Prompt[FoundChoice] {
	return &Prompt[FoundChoice]{
		id:        id,
		validator: validator,
		recognize: func(act *activity.Activity, opts PromptOptions) (FoundChoice, bool) {
			return RecognizeChoice(act.Text, opts.Choices)
		},
		render: renderChoices,
	}
}

var (
	confirmYes = map[string]bool{"yes": true, "y": true, "yeah": true, "yep": true, "sure": true, "ok": true, "true": true, "1": true}
	confirmNo  = map[string]bool{"no": true, "n": true, "nope": true, "false": true, "0": true}
)

// NewConfirmPrompt accepts a yes or no answer.
func NewConfirmPrompt(id string, validator Validator[bool]) *Prompt[bool] {
	return &Prompt[bool]{
		id:        id,
		validator: validator,
		recognize: func(act *activity.Activity, _ PromptOptions) (bool, bool) {
			word := strings.ToLower(strings.Trim(strings.TrimSpace(act.Text), ".!"))
			switch {
			case confirmYes[word]:
				return true, true
			case confirmNo[word]:
				return false, true
			default:
				return false, false
			}
		},
		render: func(text string, opts PromptOptions) *activity.Activity {
			opts.Choices = []string{"Yes", "No"}
			return renderChoices(text, opts)
		},
	}
}

func (p *Prompt[T]) ID() string { return p.id }

func (p *Prompt[T]) BeginDialog(ctx context.Context, dc *Context, options any) (TurnResult, error) {
	st := promptState{Options: promptOptionsOf(options)}
	if err := dc.ActiveDialog().Encode(st); err != nil {
		return TurnResult{}, err
	}
	if err := p.send(ctx, dc, st.Options.Prompt, st.Options); err != nil {
		return TurnResult{}, err
	}
	return EndOfTurn, nil
}

func (p *Prompt[T]) ContinueDialog(ctx context.Context, dc *Context) (TurnResult, error) {
	act := dc.tc.Activity()
	if act.Type != activity.TypeMessage {
		return EndOfTurn, nil
	}

	var st promptState
	if err := dc.ActiveDialog().Decode(&st); err != nil {
		return TurnResult{}, err
	}
	st.Attempts++

	value, ok := p.recognize(act, st.Options)
	valid := ok
	if p.validator != nil {
		var err error
		valid, err = p.validator(ctx, Recognized[T]{Succeeded: ok, Value: value, Attempts: st.Attempts, Options: st.Options})
		if err != nil {
			return TurnResult{}, err
		}
	}
	if valid {
		return dc.EndDialog(ctx, value)
	}

	if err := dc.ActiveDialog().Encode(st); err != nil {
		return TurnResult{}, err
	}
	retry := st.Options.RetryPrompt
	if retry == "" {
		retry = st.Options.Prompt
	}
	if err := p.send(ctx, dc, retry, st.Options); err != nil {
		return TurnResult{}, err
	}
	return EndOfTurn, nil
}

// ResumeDialog re-asks the prompt when a dialog begun above it ends.
func (p *Prompt[T]) ResumeDialog(ctx context.Context, dc *Context, _ Reason, _ any) (TurnResult, error) {
	var st promptState
	if err := dc.ActiveDialog().Decode(&st); err != nil {
		return TurnResult{}, err
	}
	if err := p.send(ctx, dc, st.Options.Prompt, st.Options); err != nil {
		return TurnResult{}, err
	}
	return EndOfTurn, nil
}

func (p *Prompt[T]) send(ctx context.Context, dc *Context, text string, opts PromptOptions) error {
	if text == "" && len(opts.Choices) == 0 {
		return nil
	}
	_, err := dc.tc.SendActivity(ctx, p.render(text, opts))
	return err
}

func renderText(text string, _ PromptOptions) *activity.Activity {
	return activity.NewMessage(text)
}

func renderChoices(text string, opts PromptOptions) *activity.Activity {
	msg := activity.NewMessage(text)
	if len(opts.Choices) == 0 {
		return msg
	}
	actions := make([]activity.CardAction, 0, len(opts.Choices))
	for _, c := range opts.Choices {
		actions = append(actions, activity.CardAction{Type: activity.ActionIMBack, Title: c, Value: c})
	}
	msg.SuggestedActions = &activity.SuggestedActions{Actions: actions}
	return msg
}

func promptOptionsOf(options any) PromptOptions {
	switch o := options.(type) {
	case PromptOptions:
		return o
	case *PromptOptions:
		if o != nil {
			return *o
		}
	case string:
		return PromptOptions{Prompt: o}
	}
	return PromptOptions{}
}

// RecognizeChoice matches text against choices.
func RecognizeChoice(text string, choices []string) (FoundChoice, bool) {
	text = strings.TrimSpace(text)
	if text == "" || len(choices) == 0 {
		return FoundChoice{}, false
	}
	for i, c := range choices {
		if strings.EqualFold(c, text) {
			return FoundChoice{Value: c, Index: i}, true
		}
	}
	if n, err := strconv.Atoi(text); err == nil && n >= 1 && n <= len(choices) {
		return FoundChoice{Value: choices[n-1], Index: n - 1}, true
	}

	words := strings.Fields(strings.ToLower(text))
	best, bestScore, tie := -1, 0, false
	for i, c := range choices {
		score := 0
		tokens := strings.Fields(strings.ToLower(c))
		for _, w := range words {
			for _, t := range tokens {
				if w == t {
					score++
					break
				}
			}
		}
		switch {
		case score > bestScore:
			best, bestScore, tie = i, score, false
		case score == bestScore && score > 0:
			tie = true
		}
	}
	if best < 0 || tie {
		return FoundChoice{}, false
	}
	return FoundChoice{Value: choices[best], Index: best}, true
}
