package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/promptforge/promptforge/internal/openaiapi"
	"github.com/promptforge/promptforge/internal/stage"
)

const systemPrompt = "You are a precise prompt-engineering assistant. Follow the instructions exactly and output nothing beyond what they ask for."

// Completer issues one completion request. Retry behavior lives behind this
// boundary; the Runner sees either a result or a classified failure.
type Completer interface {
	Complete(ctx context.Context, req openaiapi.CompletionRequest) (openaiapi.CompletionResponse, error)
}

// AnswerSource collects operator answers for clarifying questions, one
// question at a time, in order. Ask blocks until a line of input arrives.
// An empty answer is an explicit skip. Returns ErrAborted when input ends.
type AnswerSource interface {
	Ask(ctx context.Context, question string, idx, total int) (string, error)
}

// Runner sequences the stage plan: diagnosis, then interactive
// clarification, then integration. It owns the prompt context exclusively
// and runs strictly sequentially.
type Runner struct {
	client  Completer
	stages  []stage.Stage
	answers AnswerSource
	sink    Sink
	runID   string
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink routes completed-stage events to s.
func WithSink(s Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithRunID tags sink events with a run identifier.
func WithRunID(id string) Option {
	return func(r *Runner) { r.runID = id }
}

// NewRunner creates a Runner over a validated stage plan.
func NewRunner(client Completer, stages []stage.Stage, answers AnswerSource, opts ...Option) *Runner {
	r := &Runner{
		client:  client,
		stages:  stages,
		answers: answers,
		sink:    NopSink(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the pipeline over the input prompt and returns the result of
// the last integration stage. Any failure aborts the whole run; a partial
// context is never used to synthesize a best-effort output.
func (r *Runner) Run(ctx context.Context, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", fmt.Errorf("input prompt is empty")
	}

	pctx := NewContext(input)
	finalStage := ""

	for i, st := range r.stages {
		if err := r.runStage(ctx, pctx, st); err != nil {
			return "", err
		}
		if err := r.flush(ctx, i+1, st, pctx); err != nil {
			// The sink is a diagnostic collaborator; losing an event must
			// not discard a completed stage.
			log.Warn().Err(err).Str("stage", st.Name).Msg("stage event not recorded")
		}
		if st.Phase == stage.PhaseIntegration {
			finalStage = st.Name
		}
	}

	output, ok := pctx.Get(finalStage)
	if !ok || strings.TrimSpace(output) == "" {
		return "", fmt.Errorf("integration stage %q produced no output", finalStage)
	}
	return output, nil
}

func (r *Runner) runStage(ctx context.Context, pctx *Context, st stage.Stage) error {
	for _, in := range st.RequiredInputs {
		if !pctx.Has(in) {
			return &StageError{Stage: st.Name, Err: &stage.ConfigError{
				Reason: fmt.Sprintf("required input %q missing from context", in),
			}}
		}
	}

	prompt, err := stage.Resolve(st.Template, pctx.Get)
	if err != nil {
		return &StageError{Stage: st.Name, Err: err}
	}

	log.Info().
		Str("stage", st.Name).
		Str("phase", string(st.Phase)).
		Bool("interactive", st.Interactive).
		Msg("running stage")

	resp, err := r.client.Complete(ctx, openaiapi.CompletionRequest{
		System: systemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		return &StageError{Stage: st.Name, Err: err}
	}
	if err := pctx.Append(st.Name, resp.OutputText); err != nil {
		return &StageError{Stage: st.Name, Err: err}
	}

	if !st.Interactive {
		return nil
	}

	questions := ParseQuestions(resp.OutputText)
	log.Info().Str("stage", st.Name).Int("questions", len(questions)).Msg("clarification interview")
	if len(questions) == 0 {
		return nil
	}

	pairs, err := r.interview(ctx, st, questions)
	if err != nil {
		// The raw questions stay in the context so an aborted run can be
		// diagnosed from the recorded events.
		return &StageError{Stage: st.Name, Err: err}
	}
	if err := pctx.Replace(st.Name, FormatTranscript(pairs)); err != nil {
		return &StageError{Stage: st.Name, Err: err}
	}
	return nil
}

// interview asks every question in order. The result always holds one pair
// per question (plus any follow-ups); skips are recorded, never omitted.
func (r *Runner) interview(ctx context.Context, st stage.Stage, questions []string) ([]QA, error) {
	pairs := make([]QA, 0, len(questions))
	for i, q := range questions {
		answer, err := r.answers.Ask(ctx, q, i+1, len(questions))
		if err != nil {
			return nil, err
		}
		answer = strings.TrimSpace(answer)
		if answer == "" {
			answer = NoAnswer
		}
		pairs = append(pairs, QA{Question: q, Answer: answer})

		if answer == NoAnswer || st.MaxFollowups == 0 {
			continue
		}
		followups, err := r.followUps(ctx, st, q, answer, i+1, len(questions))
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, followups...)
	}
	return pairs, nil
}

// followUps asks the model whether the answer needs narrowing, at most
// MaxFollowups times per question. A decision the model fails to express as
// valid JSON ends the follow-up chain instead of aborting the interview.
func (r *Runner) followUps(ctx context.Context, st stage.Stage, question, answer string, idx, total int) ([]QA, error) {
	var pairs []QA
	for range st.MaxFollowups {
		prompt, err := stage.Resolve(st.FollowupTemplate, func(name string) (string, bool) {
			switch name {
			case "question":
				return question, true
			case "answer":
				return answer, true
			}
			return "", false
		})
		if err != nil {
			return nil, err
		}

		resp, err := r.client.Complete(ctx, openaiapi.CompletionRequest{
			System: systemPrompt,
			Prompt: prompt,
		})
		if err != nil {
			return nil, err
		}
		decision, err := parseFollowupDecision(resp.OutputText)
		if err != nil {
			log.Warn().Err(err).Str("stage", st.Name).Msg("unusable follow-up decision, continuing")
			return pairs, nil
		}
		if !decision.NeedFollowup {
			return pairs, nil
		}

		followupAnswer, err := r.answers.Ask(ctx, decision.FollowupQuestion, idx, total)
		if err != nil {
			return nil, err
		}
		followupAnswer = strings.TrimSpace(followupAnswer)
		if followupAnswer == "" {
			followupAnswer = NoAnswer
		}
		pairs = append(pairs, QA{Question: decision.FollowupQuestion, Answer: followupAnswer, FollowUp: true})
		if followupAnswer == NoAnswer {
			return pairs, nil
		}
		question, answer = decision.FollowupQuestion, followupAnswer
	}
	return pairs, nil
}

func (r *Runner) flush(ctx context.Context, seq int, st stage.Stage, pctx *Context) error {
	output, _ := pctx.Get(st.Name)
	return r.sink.StageCompleted(ctx, StageEvent{
		RunID:  r.runID,
		Seq:    seq,
		Stage:  st.Name,
		Phase:  st.Phase,
		Output: output,
		At:     time.Now().UTC(),
	})
}
