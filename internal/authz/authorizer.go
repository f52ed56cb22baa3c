// Package authz answers "may subject S perform operation O on document D?".
// It is the single enforcement point on the handle-issuing path: nothing may
// reach the blob store before a decision from here, and every decision is
// logged exactly once.
package authz

import (
	"context"
	"errors"
	"log/slog"

	"docgate/internal/logging"
	"docgate/internal/model"
	"docgate/internal/repository"
)

// ErrUnavailable means a rule could not be evaluated (registry unreachable).
// The decision is still deny; the distinct error lets operators tell
// "denied" apart from "couldn't decide".
var ErrUnavailable = errors.New("authorization unavailable")

// Rule is one independent checker in the ordered evaluation list.
// Add new rules by appending, not by modifying existing checkers.
type Rule struct {
	Name  string
	Check func(ctx context.Context, subjectID, documentID string, op model.Operation) (bool, error)
}

// Authorizer evaluates rules in order with short-circuit OR and a
// fail-closed default.
type Authorizer struct {
	rules []Rule
	log   *slog.Logger
}

// New builds an Authorizer with the given rule order. Ordering matters for
// latency (cheapest, most common checks first), not for correctness.
func New(log *slog.Logger, rules ...Rule) *Authorizer {
	return &Authorizer{rules: rules, log: log}
}

// RoleOverride is the role whose holders may read any document.
const RoleOverride = "document_admin"

// DefaultRules returns the standard rule chain backed by the registry:
// ownership, explicit grant, role override.
func DefaultRules(repo repository.RegistryRepository) []Rule {
	return []Rule{
		{
			Name: "owner",
			Check: func(ctx context.Context, subjectID, documentID string, _ model.Operation) (bool, error) {
				return repo.IsDocumentOwner(ctx, subjectID, documentID)
			},
		},
		{
			Name: "grant",
			Check: func(ctx context.Context, subjectID, documentID string, op model.Operation) (bool, error) {
				return repo.HasGrant(ctx, subjectID, documentID, op)
			},
		},
		{
			Name: "role",
			Check: func(ctx context.Context, subjectID, _ string, _ model.Operation) (bool, error) {
				return repo.HasRole(ctx, subjectID, RoleOverride)
			},
		},
	}
}

// Authorize produces a fresh decision for this request. Decisions are never
// cached: grants can change between calls.
//
// Semantics: allow if any rule allows. A rule error does not stop
// evaluation — a later allow still wins — but if nothing allows and any rule
// errored, the result is (deny, ErrUnavailable) rather than a plain deny.
func (a *Authorizer) Authorize(ctx context.Context, subjectID, documentID string, op model.Operation) (model.Decision, error) {
	decision := model.Decision{
		SubjectID:  subjectID,
		DocumentID: documentID,
		Operation:  op,
	}

	var ruleErr error
	for _, rule := range a.rules {
		allowed, err := rule.Check(ctx, subjectID, documentID, op)
		if err != nil {
			if ruleErr == nil {
				ruleErr = err
			}
			continue
		}
		if allowed {
			decision.Allowed = true
			decision.Reason = rule.Name
			break
		}
	}

	var outErr error
	if !decision.Allowed {
		if ruleErr != nil {
			decision.Reason = "unavailable"
			outErr = errors.Join(ErrUnavailable, ruleErr)
		} else {
			decision.Reason = "no rule allowed"
		}
	}

	a.audit(ctx, decision, ruleErr)
	return decision, outErr
}

// audit emits the single structured decision line consumed by the external
// audit sink.
func (a *Authorizer) audit(ctx context.Context, d model.Decision, ruleErr error) {
	log := logging.WithCorrelation(ctx, a.log)
	attrs := []any{
		"subject_id", d.SubjectID,
		"document_id", d.DocumentID,
		"operation", string(d.Operation),
		"allowed", d.Allowed,
		"reason", d.Reason,
	}
	if ruleErr != nil {
		attrs = append(attrs, "rule_error", ruleErr.Error())
	}
	if d.Allowed {
		log.Info("authorization_decision", attrs...)
	} else {
		log.Warn("authorization_decision", attrs...)
	}
}
