// Package investigator drives the bounded tool-calling conversation that turns
// an alarm into a root-cause report.
package investigator

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/soyeahso/alarmhound/internal/capability"
	"github.com/soyeahso/alarmhound/internal/hooks"
	"github.com/soyeahso/alarmhound/internal/llm"
	"github.com/soyeahso/alarmhound/internal/logging"
)

// DefaultMaxIterations caps the number of reasoning service calls per run.
const DefaultMaxIterations = 10

// Fixed report texts for the two terminal outcomes that carry no model answer.
const (
	NoReportText  = "Investigation complete but no report generated."
	ExhaustedText = "Investigation reached max iterations. Partial analysis may be available above."
)

// Status is the terminal state of an investigation.
type Status string

const (
	StatusAnswered  Status = "answered"
	StatusExhausted Status = "exhausted"
)

// Outcome is the single result of one investigation run.
type Outcome struct {
	Status     Status        `json:"status"`
	Text       string        `json:"text"`
	Partial    string        `json:"partial,omitempty"`
	Iterations int           `json:"iterations"`
	ToolCalls  int           `json:"toolCalls"`
	Usage      llm.Usage     `json:"usage"`
	Duration   time.Duration `json:"duration"`
}

// Config tunes the driver loop.
type Config struct {
	MaxIterations int
	// Parallelism bounds concurrent tool invocations within one turn.
	// Values below 2 run them one at a time in request order.
	Parallelism int
	MaxTokens   int
	Temperature *float64
}

// Investigator runs investigations against a reasoning service and a
// capability catalog. It holds no per-run state and is safe for concurrent use.
type Investigator struct {
	cfg     Config
	client  llm.Client
	catalog *capability.Catalog
	hooks   *hooks.Manager
	log     *logging.Logger
}

// New creates an investigator. hooks may be nil.
func New(cfg Config, client llm.Client, catalog *capability.Catalog, hm *hooks.Manager, log *logging.Logger) *Investigator {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = DefaultMaxIterations
	}
	if catalog == nil {
		catalog = capability.NewCatalog()
	}
	return &Investigator{
		cfg:     cfg,
		client:  client,
		catalog: catalog,
		hooks:   hm,
		log:     log.Sub("investigator"),
	}
}

// Investigate runs the conversation for one brief. Capability failures are fed
// back to the model; only reasoning service errors and malformed responses are
// returned as errors.
func (inv *Investigator) Investigate(ctx context.Context, brief Brief) (Outcome, error) {
	start := time.Now()
	log := inv.log.With("investigation", brief.ID)

	task := brief.Task
	if task == "" {
		task = DefaultTask
	}

	var conv llm.Conversation
	conv.Append(llm.Turn{Role: llm.RoleUser, Blocks: []llm.Block{llm.TextBlock(task)}})

	tools := inv.catalog.Advertisement()

	inv.hooks.Emit(ctx, hooks.EventInvestigationStarted, map[string]any{
		"investigation": brief.ID,
		"alarm":         brief.AlarmName,
		"tools":         len(tools),
	})
	log.Info().Str("alarm", brief.AlarmName).Int("tools", len(tools)).Msg("investigation started")

	var (
		out      Outcome
		lastText string
	)

	finish := func(o Outcome) Outcome {
		o.Usage = out.Usage
		o.ToolCalls = out.ToolCalls
		o.Duration = time.Since(start)
		inv.hooks.Emit(ctx, hooks.EventInvestigationFinished, map[string]any{
			"investigation": brief.ID,
			"alarm":         brief.AlarmName,
			"status":        string(o.Status),
			"iterations":    o.Iterations,
			"toolCalls":     o.ToolCalls,
			"inputTokens":   o.Usage.InputTokens,
			"outputTokens":  o.Usage.OutputTokens,
			"durationMs":    o.Duration.Milliseconds(),
		})
		log.Info().
			Str("status", string(o.Status)).
			Int("iterations", o.Iterations).
			Int("toolCalls", o.ToolCalls).
			Dur("duration", o.Duration).
			Msg("investigation finished")
		return o
	}

	for iter := 0; iter < inv.cfg.MaxIterations; iter++ {
		resp, err := inv.client.Converse(ctx, llm.Request{
			System:      brief.SystemPrompt,
			Turns:       conv.Turns(),
			Tools:       tools,
			MaxTokens:   inv.cfg.MaxTokens,
			Temperature: inv.cfg.Temperature,
		})
		if err != nil {
			return Outcome{}, fmt.Errorf("reasoning service call %d: %w", iter+1, err)
		}
		if err := resp.Validate(); err != nil {
			return Outcome{}, fmt.Errorf("reasoning service call %d: %w", iter+1, err)
		}

		out.Usage.InputTokens += resp.Usage.InputTokens
		out.Usage.OutputTokens += resp.Usage.OutputTokens

		turn := *resp.Turn
		conv.Append(turn)
		if text, ok := turn.Text(); ok {
			lastText = text
		}

		switch resp.StopReason {
		case llm.StopEndTurn:
			text, ok := turn.Text()
			if !ok {
				text = NoReportText
			}
			return finish(Outcome{Status: StatusAnswered, Text: text, Iterations: iter + 1}), nil

		case llm.StopToolUse:
			requests := turn.ToolUses()
			results := inv.dispatch(ctx, brief.ID, requests)
			out.ToolCalls += len(requests)
			if len(results) > 0 {
				conv.Append(llm.Turn{Role: llm.RoleUser, Blocks: results})
			} else {
				log.Warn().Int("iteration", iter+1).Msg("tool_use stop without tool requests")
			}

		default:
			// Unrecognised stop reasons consume the iteration without adding a turn.
			log.Warn().
				Str("stopReason", resp.StopReason).
				Int("iteration", iter+1).
				Msg("unhandled stop reason, continuing")
		}
	}

	return finish(Outcome{
		Status:     StatusExhausted,
		Text:       ExhaustedText,
		Partial:    lastText,
		Iterations: inv.cfg.MaxIterations,
	}), nil
}

// dispatch runs every tool request and returns one result block per request,
// in request order.
func (inv *Investigator) dispatch(ctx context.Context, investigation string, requests []llm.Block) []llm.Block {
	results := make([]llm.Block, len(requests))
	if len(requests) == 0 {
		return results
	}

	if inv.cfg.Parallelism < 2 || len(requests) == 1 {
		for i, req := range requests {
			results[i] = inv.invoke(ctx, investigation, req)
		}
		return results
	}

	var g errgroup.Group
	g.SetLimit(inv.cfg.Parallelism)
	for i, req := range requests {
		g.Go(func() error {
			results[i] = inv.invoke(ctx, investigation, req)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

// invoke resolves and runs a single request. It never fails: unknown tools,
// returned errors and panics all become error payloads.
func (inv *Investigator) invoke(ctx context.Context, investigation string, req llm.Block) llm.Block {
	start := time.Now()

	var payload capability.Payload
	cp, ok := inv.catalog.Lookup(req.Name)
	if !ok {
		payload = capability.UnknownTool(req.Name)
	} else {
		payload = inv.safeInvoke(ctx, cp, req)
	}

	isErr := payload.IsError()
	elapsed := time.Since(start)

	status := capability.StatusSuccess
	if isErr {
		status = capability.StatusError
	}
	inv.hooks.Emit(ctx, hooks.EventToolInvoked, map[string]any{
		"investigation": investigation,
		"tool":          req.Name,
		"toolUseId":     req.ID,
		"status":        status,
		"known":         ok,
		"durationMs":    elapsed.Milliseconds(),
	})

	ev := inv.log.Debug()
	if isErr {
		ev = inv.log.Warn().Interface("error", payload["error"])
	}
	ev.Str("tool", req.Name).Str("toolUseId", req.ID).Dur("duration", elapsed).Msg("tool invoked")

	return llm.ToolResultBlock(req.ID, payload, isErr)
}

func (inv *Investigator) safeInvoke(ctx context.Context, cp capability.Capability, req llm.Block) (payload capability.Payload) {
	defer func() {
		if r := recover(); r != nil {
			inv.log.Error().
				Str("tool", req.Name).
				Interface("panic", r).
				Str("stack", string(debug.Stack())).
				Msg("capability panicked")
			payload = capability.Failuref("capability %s panicked: %v", req.Name, r)
		}
	}()

	params := req.Input
	if params == nil {
		params = map[string]any{}
	}

	p, err := cp.Invoke(ctx, params)
	if err != nil {
		return capability.Failure(err)
	}
	if p == nil {
		return capability.Success(nil)
	}
	return p
}
