// Package agent drives one conversational turn through the pipeline:
// intent classification, time-phrase normalization, SQL or filter
// synthesis, safety gating, execution and response shaping. The flow is a
// finite state machine so every turn ends in exactly one terminal state.
package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qmuntal/stateless"

	"github.com/theboatbrokers/brokerchat/internal/brochure"
	"github.com/theboatbrokers/brokerchat/internal/intent"
	"github.com/theboatbrokers/brokerchat/internal/llm"
	"github.com/theboatbrokers/brokerchat/internal/logger"
	"github.com/theboatbrokers/brokerchat/internal/memory"
	"github.com/theboatbrokers/brokerchat/internal/report"
	"github.com/theboatbrokers/brokerchat/internal/sqlgen"
	"github.com/theboatbrokers/brokerchat/internal/store"
	"github.com/theboatbrokers/brokerchat/internal/timephrase"
)

// FSM states.
type FSMState stateless.State

var (
	StateClassifying  FSMState = "Classifying"
	StateSynthesizing FSMState = "Synthesizing"
	StateExecuting    FSMState = "Executing"
	StateSummarizing  FSMState = "Summarizing"
	StateReporting    FSMState = "Reporting"
	StateBrochure     FSMState = "Brochure"
	StateDone         FSMState = "Done"  // Terminal: outcome ready
	StateError        FSMState = "Error" // Terminal: fatal error
)

// FSM triggers.
type FSMTrigger stateless.Trigger

var (
	TriggerProcessInput      FSMTrigger = "ProcessInput"
	TriggerQueryRequested    FSMTrigger = "QueryRequested"
	TriggerReportRequested   FSMTrigger = "ReportRequested"
	TriggerBrochureRequested FSMTrigger = "BrochureRequested"
	TriggerStatementReady    FSMTrigger = "StatementReady"
	TriggerRowsFetched       FSMTrigger = "RowsFetched"
	TriggerResolved          FSMTrigger = "Resolved"
	TriggerErrorOccurred     FSMTrigger = "ErrorOccurred"
)

// Options tunes response shaping.
type Options struct {
	// OutputDir is where report and brochure artifacts are written.
	OutputDir string
	// ReportFormat selects the report artifact format, "xlsx" (default)
	// or "csv".
	ReportFormat string
	// BrochureLinkBase, when set, answers brochure requests with an
	// admin-panel download link instead of rendering a PDF locally.
	BrochureLinkBase string
	// Now supplies the reference instant for time-phrase normalization;
	// defaults to time.Now.
	Now func() time.Time
}

// Database is the subset of the relational store the pipeline uses. It is
// an interface so tests can drive the pipeline without MySQL.
type Database interface {
	Schema(ctx context.Context) (string, error)
	Query(ctx context.Context, stmt string, args ...any) ([]map[string]any, error)
	QueryRows(ctx context.Context, stmt string, args ...any) ([]string, []map[string]any, error)
	QueryRow(ctx context.Context, stmt string, args ...any) (map[string]any, bool, error)
}

// Agent wires the oracle, store and memory into the turn pipeline.
type Agent struct {
	oracle llm.Client
	db     Database
	mem    memory.Store
	opts   Options
}

// New creates an agent.
func New(oracle llm.Client, db Database, mem memory.Store, opts Options) *Agent {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Agent{oracle: oracle, db: db, mem: mem, opts: opts}
}

// Outcome is the closed result variant of one turn. Exactly one of Stream,
// FilePath or Message is meaningful.
type Outcome struct {
	Intent intent.Intent
	// Stream, when non-nil, produces the response by forwarding oracle
	// fragments to emit in generation order. The turn is appended to
	// memory only after the stream drains cleanly.
	Stream func(emit func(fragment string) error) error
	// FilePath points at a generated artifact (xlsx or pdf).
	FilePath string
	// Message is a plain, user-facing response (refusals, fallbacks,
	// brochure links).
	Message string
}

// Process runs one user turn and returns its outcome. Recoverable
// conditions (unsafe statement, unextractable SQL or filters, unknown
// intent) resolve into user-facing messages; connection failures, missing
// brochure entities and oracle transport errors return typed errors for
// the HTTP layer to map.
func (a *Agent) Process(ctx context.Context, sessionID, userText string) (Outcome, error) {
	// FSM context data, shared across state entry actions.
	type fsmContext struct {
		history   string
		timeRange *timephrase.Range
		statement string
		rows      []map[string]any
		outcome   Outcome
		lastError error
	}
	fsmCtx := &fsmContext{}

	if tr, ok := timephrase.Normalize(userText, a.opts.Now()); ok {
		fsmCtx.timeRange = &tr
	}
	fsmCtx.history = memory.HistoryText(a.mem.Get(sessionID))

	fsm := stateless.NewStateMachine(StateClassifying)

	fail := func(ctx context.Context, err error) error {
		fsmCtx.lastError = err
		return fsm.FireCtx(ctx, TriggerErrorOccurred)
	}
	resolve := func(ctx context.Context, out Outcome) error {
		fsmCtx.outcome = out
		return fsm.FireCtx(ctx, TriggerResolved)
	}

	// State: Classifying. Label the turn and branch; casual conversation
	// resolves immediately into a raw streamed reply. OnEntry actions only
	// run on transitions, so the initial fire re-enters this state to
	// start the pipeline.
	fsm.Configure(StateClassifying).
		PermitReentry(TriggerProcessInput).
		OnEntry(func(ctx context.Context, _ ...any) error {
			label, err := intent.Classify(ctx, a.oracle, userText)
			if err != nil && !errors.Is(err, intent.ErrUnclassified) {
				return fail(ctx, err)
			}
			logger.L.Debug("intent classified", "session_id", sessionID, "intent", label.String())

			switch label {
			case intent.Query:
				return fsm.FireCtx(ctx, TriggerQueryRequested)
			case intent.Conversation:
				return resolve(ctx, Outcome{
					Intent: label,
					Stream: a.streamAndRemember(ctx, sessionID, userText, userText),
				})
			case intent.Report:
				return fsm.FireCtx(ctx, TriggerReportRequested)
			case intent.Brochure:
				return fsm.FireCtx(ctx, TriggerBrochureRequested)
			default:
				return resolve(ctx, Outcome{
					Intent:  intent.Unknown,
					Message: "Sorry, I couldn't determine your intent. Try rephrasing.",
				})
			}
		}).
		Permit(TriggerQueryRequested, StateSynthesizing).
		Permit(TriggerReportRequested, StateReporting).
		Permit(TriggerBrochureRequested, StateBrochure).
		Permit(TriggerResolved, StateDone).
		Permit(TriggerErrorOccurred, StateError)

	// State: Synthesizing. Build the generation prompt from schema,
	// history and time context; extract and gate the statement.
	fsm.Configure(StateSynthesizing).
		OnEntry(func(ctx context.Context, _ ...any) error {
			schema, err := a.db.Schema(ctx)
			if err != nil {
				return fail(ctx, err)
			}
			raw, err := a.oracle.Generate(ctx, sqlgen.BuildPrompt(userText, schema, fsmCtx.history, fsmCtx.timeRange))
			if err != nil {
				return fail(ctx, err)
			}
			stmt := sqlgen.Extract(raw)
			if stmt == "" {
				return resolve(ctx, Outcome{
					Intent:  intent.Query,
					Message: "I couldn't generate a valid SQL query. Please rephrase.",
				})
			}
			if !sqlgen.IsSafe(stmt) {
				logger.L.Warn("unsafe statement refused", "session_id", sessionID, "statement", stmt)
				return resolve(ctx, Outcome{
					Intent:  intent.Query,
					Message: "Unsafe command detected. Sorry, I'm not allowed to perform these kinds of tasks.",
				})
			}
			fsmCtx.statement = stmt
			return fsm.FireCtx(ctx, TriggerStatementReady)
		}).
		Permit(TriggerStatementReady, StateExecuting).
		Permit(TriggerResolved, StateDone).
		Permit(TriggerErrorOccurred, StateError)

	// State: Executing. One pooled connection per statement; a failed
	// execution is shown to the user as-is, synthesis is never retried.
	fsm.Configure(StateExecuting).
		OnEntry(func(ctx context.Context, _ ...any) error {
			rows, err := a.db.Query(ctx, fsmCtx.statement)
			if err != nil {
				if errors.Is(err, store.ErrConnection) {
					return fail(ctx, err)
				}
				return resolve(ctx, Outcome{
					Intent:  intent.Query,
					Message: fmt.Sprintf("The query failed to execute: %v", err),
				})
			}
			fsmCtx.rows = rows
			return fsm.FireCtx(ctx, TriggerRowsFetched)
		}).
		Permit(TriggerRowsFetched, StateSummarizing).
		Permit(TriggerResolved, StateDone).
		Permit(TriggerErrorOccurred, StateError)

	// State: Summarizing. The rows go back through the oracle for a
	// natural-language answer, streamed to the caller.
	fsm.Configure(StateSummarizing).
		OnEntry(func(ctx context.Context, _ ...any) error {
			prompt := sqlgen.SummaryPrompt(userText, fsmCtx.rows, fsmCtx.history)
			return resolve(ctx, Outcome{
				Intent: intent.Query,
				Stream: a.streamAndRemember(ctx, sessionID, userText, prompt),
			})
		}).
		Permit(TriggerResolved, StateDone).
		Permit(TriggerErrorOccurred, StateError)

	// State: Reporting. Filters through the oracle, compilation through
	// the in-code rulebook, result into a spreadsheet.
	fsm.Configure(StateReporting).
		OnEntry(func(ctx context.Context, _ ...any) error {
			out, err := a.buildReport(ctx, userText, fsmCtx.timeRange)
			if err != nil {
				if errors.Is(err, report.ErrFilterExtraction) || errors.Is(err, report.ErrUnsupportedType) {
					return resolve(ctx, Outcome{
						Intent:  intent.Report,
						Message: "I couldn't work out the report you want. Please rephrase with the report type (buyers, vendors or sales).",
					})
				}
				return fail(ctx, err)
			}
			return resolve(ctx, out)
		}).
		Permit(TriggerResolved, StateDone).
		Permit(TriggerErrorOccurred, StateError)

	// State: Brochure. Resolve the boat name, then either link to the
	// admin panel or render the PDF.
	fsm.Configure(StateBrochure).
		OnEntry(func(ctx context.Context, _ ...any) error {
			out, err := a.buildBrochure(ctx, userText)
			if err != nil {
				if errors.Is(err, brochure.ErrNameExtraction) {
					return resolve(ctx, Outcome{
						Intent:  intent.Brochure,
						Message: "I couldn't tell which boat you mean. Please name the boat.",
					})
				}
				return fail(ctx, err)
			}
			return resolve(ctx, out)
		}).
		Permit(TriggerResolved, StateDone).
		Permit(TriggerErrorOccurred, StateError)

	fsm.Configure(StateDone)
	fsm.Configure(StateError).
		OnEntry(func(_ context.Context, _ ...any) error {
			if fsmCtx.lastError == nil {
				fsmCtx.lastError = errors.New("agent: reached error state without a specific error")
			}
			return nil
		})

	if err := fsm.FireCtx(ctx, TriggerProcessInput); err != nil {
		if fsmCtx.lastError != nil {
			return Outcome{}, fsmCtx.lastError
		}
		return Outcome{}, fmt.Errorf("agent: pipeline start: %w", err)
	}

	current, err := fsm.State(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("agent: pipeline state: %w", err)
	}
	switch current {
	case StateDone:
		return fsmCtx.outcome, nil
	case StateError:
		return Outcome{}, fsmCtx.lastError
	default:
		return Outcome{}, fmt.Errorf("agent: pipeline ended in unexpected state %v", current)
	}
}

// streamAndRemember produces the streamed reply and, only after a clean
// drain, appends the full turn to conversation memory. A cancelled or
// failed stream leaves history untouched.
func (a *Agent) streamAndRemember(ctx context.Context, sessionID, userText, prompt string) func(func(string) error) error {
	return func(emit func(string) error) error {
		s, err := a.oracle.GenerateStream(ctx, prompt)
		if err != nil {
			return err
		}
		full, err := llm.Drain(s, emit)
		if err != nil {
			return err
		}
		a.mem.Append(sessionID, userText, full)
		return nil
	}
}

func (a *Agent) buildReport(ctx context.Context, userText string, tr *timephrase.Range) (Outcome, error) {
	filters, err := report.ExtractFilters(ctx, a.oracle, userText, tr)
	if err != nil {
		return Outcome{}, err
	}
	q, err := report.Compile(filters)
	if err != nil {
		return Outcome{}, err
	}
	cols, rows, err := a.db.QueryRows(ctx, q.Statement, q.Params...)
	if err != nil {
		return Outcome{}, err
	}
	var path string
	switch a.opts.ReportFormat {
	case "csv":
		path, err = report.WriteCSV(cols, rows, filters.Type, a.opts.OutputDir)
	default:
		path, err = report.WriteXLSX(cols, rows, filters.Type, a.opts.OutputDir)
	}
	if err != nil {
		return Outcome{}, err
	}
	logger.L.Info("report generated", "type", filters.Type, "rows", len(rows), "path", path)
	return Outcome{Intent: intent.Report, FilePath: path}, nil
}

func (a *Agent) buildBrochure(ctx context.Context, userText string) (Outcome, error) {
	name, err := brochure.ExtractBoatName(ctx, a.oracle, userText)
	if err != nil {
		return Outcome{}, err
	}
	lookup := &brochure.Lookuper{Store: a.db}
	rec, err := lookup.Lookup(ctx, name)
	if err != nil {
		return Outcome{}, err
	}

	if a.opts.BrochureLinkBase != "" {
		link := brochure.DownloadLink(a.opts.BrochureLinkBase, rec.LeadID)
		return Outcome{
			Intent:  intent.Brochure,
			Message: "Here is your brochure download link: " + link,
		}, nil
	}

	path, err := brochure.WritePDF(rec, name, a.opts.OutputDir)
	if err != nil {
		return Outcome{}, err
	}
	logger.L.Info("brochure generated", "boat", name, "path", path)
	return Outcome{Intent: intent.Brochure, FilePath: path}, nil
}
