// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Zee159/coachflux/services/coach/datatypes"
	"github.com/Zee159/coachflux/services/coach/frameworks"
	"github.com/Zee159/coachflux/services/coach/observability"
	"github.com/Zee159/coachflux/services/coach/progress"
	"github.com/Zee159/coachflux/services/coach/progression"
	"github.com/Zee159/coachflux/services/coach/safety"
	"github.com/Zee159/coachflux/services/coach/validation"
	"github.com/Zee159/coachflux/services/llm"
)

var turnTracer = otel.Tracer("coachflux.coach.turn")

// genericRetryMessage is shown when the model output is unusable. The
// underlying failure is logged, never surfaced.
const genericRetryMessage = "I didn't quite catch that. Could you say it again in your own words?"

// HandleTurn processes one user turn: safety first, then aggregate,
// generate, validate, and decide progression. Turns for the same
// session are serialized; a second in-flight turn is refused.
func HandleTurn(deps *Deps) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, span := turnTracer.Start(c.Request.Context(), "HandleTurn")
		defer span.End()

		var req datatypes.TurnRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}
		if err := req.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		sessionID := c.Param("sessionId")
		span.SetAttributes(attribute.String("session.id", sessionID))

		guard := deps.guard(sessionID)
		if !guard.limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "slow down"})
			return
		}
		if !guard.mu.TryLock() {
			c.JSON(http.StatusConflict, gin.H{"error": "a turn is already in flight for this session"})
			return
		}
		defer guard.mu.Unlock()

		session, err := deps.Store.GetSession(ctx, sessionID)
		if abortNotFound(c, err) {
			return
		}
		if session.Closed() {
			c.JSON(http.StatusConflict, gin.H{"error": "session is closed"})
			return
		}
		if session.Paused {
			c.JSON(http.StatusConflict, gin.H{"error": "session is paused pending review"})
			return
		}

		started := time.Now()
		if deps.Metrics != nil {
			deps.Metrics.ActiveTurns.Inc()
			defer deps.Metrics.ActiveTurns.Dec()
		}

		resp, status := deps.processTurn(ctx, session, &req)
		if deps.Metrics != nil {
			deps.Metrics.TurnsTotal.WithLabelValues(session.Framework, string(status)).Inc()
			deps.Metrics.TurnDurationSeconds.
				WithLabelValues(session.Framework, string(status)).
				Observe(time.Since(started).Seconds())
		}

		switch status {
		case observability.StatusError:
			c.JSON(http.StatusBadGateway, gin.H{"error": genericRetryMessage})
		case observability.StatusRejected:
			c.JSON(http.StatusUnprocessableEntity, resp)
		default:
			c.JSON(http.StatusOK, resp)
		}
	}
}

// processTurn runs the engine pipeline for one accepted request. No
// state is committed before the payload clears both validation gates.
func (d *Deps) processTurn(ctx context.Context, session *datatypes.Session,
	req *datatypes.TurnRequest) (*datatypes.TurnResponse, observability.TurnStatus) {

	fw, err := d.framework(session.Framework)
	if err != nil {
		slog.Error("Session references unknown framework",
			"sessionId", session.ID, "framework", session.Framework)
		return nil, observability.StatusError
	}
	step := session.CurrentStep

	// Safety runs before anything else and can short-circuit the turn.
	check := d.Classifier.Check(req.Message, req.CountryCode)
	if check.Flagged && d.Metrics != nil {
		d.Metrics.SafetyEscalationsTotal.WithLabelValues(string(check.Level)).Inc()
	}
	if check.ShouldStop {
		return d.escalate(ctx, session, req.Message, check)
	}

	history, err := d.Store.ListReflections(ctx, session.ID, "")
	if err != nil {
		slog.Error("Failed to load reflection history", "sessionId", session.ID, "error", err)
		return nil, observability.StatusError
	}
	loopDetected := progress.DetectLoop(history, step)

	payload, raw, err := d.generatePayload(ctx, fw, session, history, req.Message)
	if err != nil {
		// Unparsable model output is fatal to the turn. Nothing has been
		// committed.
		slog.Error("Turn generation failed", "sessionId", session.ID, "step", step, "error", err)
		return nil, observability.StatusError
	}

	rules := structuralRules(fw, step)
	structural := validation.CheckStructure(payload, rules)
	if !structural.Valid {
		if d.Metrics != nil {
			d.Metrics.ValidationFailuresTotal.WithLabelValues("structural", fw.Name()).Inc()
		}
		slog.Warn("Payload failed structural validation",
			"sessionId", session.ID, "step", step, "errors", structural.Errors)
		return &datatypes.TurnResponse{
			SessionID:       session.ID,
			Step:            step,
			CoachReflection: genericRetryMessage,
			SafetyLevel:     string(check.Level),
			MissingFields:   structural.MissingFields,
		}, observability.StatusRejected
	}

	if d.Verifier != nil {
		conformance := validation.CheckConformance(ctx, d.Verifier, stepSchema(fw, step), raw)
		if conformance.Flagged {
			slog.Warn("Payload hit the term denylist",
				"sessionId", session.ID, "step", step, "hits", conformance.DenylistHits)
		}
		if !conformance.Passed {
			if d.Metrics != nil {
				d.Metrics.ValidationFailuresTotal.WithLabelValues("conformance", fw.Name()).Inc()
			}
			slog.Warn("Payload failed conformance validation",
				"sessionId", session.ID, "step", step, "reason", conformance.Reason)
			return &datatypes.TurnResponse{
				SessionID:       session.ID,
				Step:            step,
				CoachReflection: genericRetryMessage,
				SafetyLevel:     string(check.Level),
			}, observability.StatusRejected
		}
	}

	// The payload is accepted: commit the user turn and the coach turn.
	if _, err := d.Store.AppendReflection(ctx, &datatypes.Reflection{
		SessionID: session.ID,
		Step:      step,
		UserInput: req.Message,
	}); err != nil {
		slog.Error("Failed to append user turn", "sessionId", session.ID, "error", err)
		return nil, observability.StatusError
	}
	if _, err := d.Store.AppendReflection(ctx, &datatypes.Reflection{
		SessionID: session.ID,
		Step:      step,
		Payload:   payload,
	}); err != nil {
		slog.Error("Failed to append coach turn", "sessionId", session.ID, "error", err)
		return nil, observability.StatusError
	}

	result := fw.CheckStepCompletion(step, payload, history, session.SkipCount, loopDetected)
	decision := progression.Decide(fw, step, result, history)

	reflectionText, _ := payload[datatypes.CoachReflectionField].(string)
	coachText := strings.TrimSpace(reflectionText)
	if check.Flagged && check.Response != "" {
		coachText = check.Response + " " + coachText
	}

	if err := d.applyDecision(ctx, session, decision, &coachText); err != nil {
		slog.Error("Failed to apply progression decision", "sessionId", session.ID, "error", err)
		return nil, observability.StatusError
	}
	if decision.Advanced {
		if d.Metrics != nil {
			d.Metrics.StepAdvancesTotal.WithLabelValues(fw.Name(), step).Inc()
		}
		slog.Info("Step advanced",
			"sessionId", session.ID, "from", step, "to", decision.NextStep, "reason", result.Reason)
	}

	return &datatypes.TurnResponse{
		SessionID:         session.ID,
		Step:              session.CurrentStep,
		CoachReflection:   coachText,
		SafetyLevel:       string(check.Level),
		Advanced:          decision.Advanced,
		Closed:            decision.Closed,
		CompletionPercent: result.CompletionPercent,
		MissingFields:     result.MissingFields,
	}, observability.StatusAccepted
}

// escalate handles a severe or crisis classification: mark the session
// escalated and substitute the safety response for coaching output.
// Only crisis pauses the session and records an incident; a severe
// turn leaves the session open so the client can continue when ready.
func (d *Deps) escalate(ctx context.Context, session *datatypes.Session,
	message string, check safety.Check) (*datatypes.TurnResponse, observability.TurnStatus) {

	if check.Level == safety.LevelCrisis {
		incident := d.Classifier.Incident(session.ID, message, check)
		if err := d.Store.CreateIncident(ctx, &incident); err != nil {
			slog.Error("Failed to record safety incident", "sessionId", session.ID, "error", err)
		}
		session.Paused = true
	}
	session.Escalated = true
	if err := d.Store.UpdateSession(ctx, session); err != nil {
		slog.Error("Failed to pause session after escalation", "sessionId", session.ID, "error", err)
		return nil, observability.StatusError
	}

	// The exchange is still recorded for audit, with the safety text as
	// the coach turn.
	if _, err := d.Store.AppendReflection(ctx, &datatypes.Reflection{
		SessionID: session.ID,
		Step:      session.CurrentStep,
		UserInput: message,
		Payload:   datatypes.Payload{datatypes.CoachReflectionField: check.Response},
	}); err != nil {
		slog.Error("Failed to record escalation turn", "sessionId", session.ID, "error", err)
	}

	slog.Warn("Session escalated by safety classifier",
		"sessionId", session.ID, "level", check.Level)
	return &datatypes.TurnResponse{
		SessionID:       session.ID,
		Step:            session.CurrentStep,
		CoachReflection: check.Response,
		SafetyLevel:     string(check.Level),
	}, observability.StatusEscalated
}

// applyDecision executes the progression command list in order. The
// first coach turn carries this turn's reflection text appended ahead
// of any transition text the host emits.
func (d *Deps) applyDecision(ctx context.Context, session *datatypes.Session,
	decision progression.Decision, coachText *string) error {

	for _, cmd := range decision.Commands {
		switch cmd.Kind {
		case progression.AppendCoachTurn:
			if _, err := d.Store.AppendReflection(ctx, &datatypes.Reflection{
				SessionID: session.ID,
				Step:      cmd.Step,
				Payload:   datatypes.Payload{datatypes.CoachReflectionField: cmd.Text},
			}); err != nil {
				return fmt.Errorf("append coach turn: %w", err)
			}
			*coachText = strings.TrimSpace(*coachText + "\n\n" + cmd.Text)
		case progression.SetStep:
			session.CurrentStep = cmd.Step
			// Skips lower the completion bar for one step only.
			session.SkipCount = 0
			if err := d.Store.UpdateSession(ctx, session); err != nil {
				return fmt.Errorf("set step: %w", err)
			}
		case progression.CloseSession:
			now := time.Now().UTC()
			session.ClosedAt = &now
			if err := d.Store.UpdateSession(ctx, session); err != nil {
				return fmt.Errorf("close session: %w", err)
			}
			if d.Metrics != nil {
				d.Metrics.SessionsClosedTotal.WithLabelValues(session.Framework).Inc()
			}
		}
	}
	return nil
}

// generatePayload builds the prompts, calls the model, and parses the
// structured payload. The raw text is returned for the conformance
// gate.
func (d *Deps) generatePayload(ctx context.Context, fw frameworks.Framework,
	session *datatypes.Session, history []datatypes.Reflection,
	message string) (datatypes.Payload, string, error) {

	temp := float32(0.3)
	raw, err := d.LLM.Generate(ctx,
		buildSystemPrompt(fw, session.CurrentStep),
		buildUserPrompt(fw, session.CurrentStep, history, message),
		llm.GenerationParams{Temperature: &temp})
	if err != nil {
		return nil, "", fmt.Errorf("llm generation: %w", err)
	}
	parsed, err := llm.ExtractJSON(raw)
	if err != nil {
		return nil, "", fmt.Errorf("llm output: %w", err)
	}
	return datatypes.Payload(parsed), raw, nil
}

// buildSystemPrompt carries the coaching persona and the step's output
// contract.
func buildSystemPrompt(fw frameworks.Framework, step string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a professional coach guiding a client through the %s framework. ",
		strings.ToUpper(fw.Name()))
	fmt.Fprintf(&b, "The current step is %q. ", step)
	b.WriteString("You are not a therapist, doctor, or lawyer; never diagnose, prescribe, or give legal advice. ")
	b.WriteString("Respond with a single JSON object and nothing else. ")
	fmt.Fprintf(&b, "Always include a %q string with your reflection to the client. ",
		datatypes.CoachReflectionField)
	if required := fw.RequiredFields(step); len(required) > 0 {
		fmt.Fprintf(&b, "Capture any of these fields the client's words support: %s. ",
			strings.Join(required, ", "))
		b.WriteString("Omit fields the client has not yet addressed; never invent values.")
	}
	return b.String()
}

// buildUserPrompt carries the turn context: captured state, optional
// framework-generated context, and the client's message.
func buildUserPrompt(fw frameworks.Framework, step string,
	history []datatypes.Reflection, message string) string {

	var b strings.Builder
	state := progress.Aggregate(history, step)
	if len(state) > 0 {
		if encoded, err := json.Marshal(state); err == nil {
			fmt.Fprintf(&b, "Captured so far in this step: %s\n", encoded)
		}
	}
	if gen, ok := fw.(frameworks.ContextGenerator); ok {
		combined := datatypes.Payload{}
		for _, earlier := range fw.Steps() {
			if earlier == step {
				break
			}
			combined = progress.MergeTurn(combined, progress.Aggregate(history, earlier))
		}
		if stepContext, ok := gen.GenerateContext(step, combined); ok {
			fmt.Fprintf(&b, "%s\n", stepContext)
		}
	}
	fmt.Fprintf(&b, "Client: %s", message)
	return b.String()
}

// structuralRules derives the step's shape rules. Steps that collect
// options or action lists get the object-list checks.
func structuralRules(fw frameworks.Framework, step string) validation.StructuralRules {
	rules := validation.StructuralRules{Required: fw.RequiredFields(step)}
	for _, field := range rules.Required {
		switch field {
		case "options":
			rules.OptionsField = "options"
		case "action_steps":
			rules.ActionsField = "action_steps"
		}
	}
	return rules
}

// stepSchema builds the verifier schema for a step from the
// framework's required fields.
func stepSchema(fw frameworks.Framework, step string) validation.Schema {
	required := fw.RequiredFields(step)
	fields := make(map[string]validation.FieldSpec, len(required)+1)
	fields[datatypes.CoachReflectionField] = validation.FieldSpec{
		Type:      "string",
		MinLength: validation.MinCoachReflectionChars,
	}
	for _, name := range required {
		fields[name] = validation.FieldSpec{Type: "string"}
	}
	return validation.Schema{Step: step, Required: required, Fields: fields}
}
