package fsm

import (
	"context"
	"errors"

	loopfsm "github.com/looplab/fsm"

	"github.com/neomorfeo/tenantdesk/internal/domain"
)

// Compile-time checks.
var (
	_ domain.TransitionValidator = (*Validator)(nil)
	_ domain.StageValidator      = (*StageValidator)(nil)
)

type edge struct {
	event string
	src   string
	dst   string
}

// buildEvents converts a transition table into looplab/fsm EventDesc format.
// It consolidates transitions with the same event+destination into a single
// EventDesc with multiple source states (e.g., terminate from "active",
// "paused" and "suspended" all go to "terminated").
func buildEvents(edges []edge) []loopfsm.EventDesc {
	type key struct {
		event string
		dst   string
	}
	grouped := make(map[key][]string)
	order := make([]key, 0)

	for _, e := range edges {
		k := key{event: e.event, dst: e.dst}
		if _, exists := grouped[k]; !exists {
			order = append(order, k)
		}
		grouped[k] = append(grouped[k], e.src)
	}

	out := make([]loopfsm.EventDesc, 0, len(order))
	for _, k := range order {
		out = append(out, loopfsm.EventDesc{
			Name: k.event,
			Src:  grouped[k],
			Dst:  k.dst,
		})
	}
	return out
}

// fire runs event on a short-lived FSM starting at current. ok is false when
// the event is not allowed from current. A self transition is reported by
// looplab/fsm as NoTransitionError with a nil Err; that is a legal move here.
func fire(ctx context.Context, events []loopfsm.EventDesc, current, event string) (dst string, ok bool, err error) {
	machine := loopfsm.NewFSM(current, events, nil)

	if err := machine.Event(ctx, event); err != nil {
		var noTransition loopfsm.NoTransitionError
		if errors.As(err, &noTransition) && noTransition.Err == nil {
			return current, true, nil
		}
		var invalidEvent loopfsm.InvalidEventError
		var unknownEvent loopfsm.UnknownEventError
		if errors.As(err, &invalidEvent) || errors.As(err, &unknownEvent) {
			return "", false, nil
		}
		return "", false, err
	}

	return machine.Current(), true, nil
}

var lifecycleEvents = func() []loopfsm.EventDesc {
	edges := make([]edge, 0, len(domain.Transitions))
	for _, t := range domain.Transitions {
		edges = append(edges, edge{event: string(t.Action), src: string(t.Src), dst: string(t.Dst)})
	}
	return buildEvents(edges)
}()

// Validator implements domain.TransitionValidator using looplab/fsm.
// It creates a short-lived FSM instance per Apply call, initialized with
// the tenant's current state, because looplab/fsm tracks the current state
// internally.
type Validator struct{}

// New creates a new FSM-backed transition validator.
func New() *Validator {
	return &Validator{}
}

// Apply checks if the given action is valid from the current status and
// returns the destination status. Returns a domain.TransitionError if
// the transition is not allowed.
func (v *Validator) Apply(ctx context.Context, current domain.Status, action domain.Action) (domain.Status, error) {
	dst, ok, err := fire(ctx, lifecycleEvents, string(current), string(action))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &domain.TransitionError{Action: action, Current: current}
	}
	return domain.Status(dst), nil
}

// StageValidator implements domain.StageValidator for the renewal and
// upgrade workflows.
type StageValidator struct {
	flows map[domain.Flow][]loopfsm.EventDesc
}

// NewStageValidator builds validators for every known flow.
func NewStageValidator() *StageValidator {
	flows := make(map[domain.Flow][]loopfsm.EventDesc)
	for _, f := range []domain.Flow{domain.FlowRenewal, domain.FlowUpgrade} {
		table, _ := domain.FlowTransitions(f)
		edges := make([]edge, 0, len(table))
		for _, t := range table {
			edges = append(edges, edge{event: string(t.Step), src: string(t.Src), dst: string(t.Dst)})
		}
		flows[f] = buildEvents(edges)
	}
	return &StageValidator{flows: flows}
}

// Step checks if step is valid from current within flow and returns the
// destination stage. Returns a domain.StageError otherwise.
func (v *StageValidator) Step(ctx context.Context, flow domain.Flow, current domain.Stage, step domain.Step) (domain.Stage, error) {
	events, known := v.flows[flow]
	if !known {
		return "", &domain.StageError{Flow: flow, Step: step, Current: current}
	}
	dst, ok, err := fire(ctx, events, string(current), string(step))
	if err != nil {
		return "", err
	}
	if !ok {
		return "", &domain.StageError{Flow: flow, Step: step, Current: current}
	}
	return domain.Stage(dst), nil
}
