// Copyright 2026 © The Kairos Authors
// SPDX-License-Identifier: Apache-2.0

package planner

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jllopis/rover/pkg/errors"
	"github.com/jllopis/rover/pkg/perception"
	"github.com/jllopis/rover/pkg/random"
)

const (
	// DefaultFallbackSize is the rule count of plans synthesized for unknown goals.
	DefaultFallbackSize = 2
	// DefaultMaxDepth bounds goal delegation before PLAN_CYCLE is reported.
	DefaultMaxDepth = 64
)

// Resolution is the outcome of resolving a goal.
// Path lists the goals entered followed by the decision or literal that
// produced Action, e.g. [search wonder choose_dir].
type Resolution struct {
	Action string
	Path   []string
}

// Resolver turns a goal and a perception snapshot into one action.
type Resolver struct {
	library      *Library
	registry     *Registry
	pool         []Rule
	rng          random.Source
	fallbackSize int
	maxDepth     int
	logger       *slog.Logger
	tracer       trace.Tracer
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithRegistry sets the registry conditions and decisions are looked up in.
func WithRegistry(reg *Registry) Option {
	return func(r *Resolver) {
		if reg != nil {
			r.registry = reg
		}
	}
}

// WithRulePool sets the pool fallback plans are drawn from.
func WithRulePool(pool []Rule) Option {
	return func(r *Resolver) {
		r.pool = append([]Rule(nil), pool...)
	}
}

// WithRandom sets the random source used for fallback plans.
func WithRandom(src random.Source) Option {
	return func(r *Resolver) {
		if src != nil {
			r.rng = src
		}
	}
}

// WithFallbackSize sets how many rules a fallback plan holds. Negative values are ignored.
func WithFallbackSize(n int) Option {
	return func(r *Resolver) {
		if n >= 0 {
			r.fallbackSize = n
		}
	}
}

// WithMaxDepth sets the delegation depth limit.
func WithMaxDepth(depth int) Option {
	return func(r *Resolver) {
		if depth > 0 {
			r.maxDepth = depth
		}
	}
}

// WithLogger sets the resolver logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewResolver creates a resolver over library. Without options it uses the
// default registry, the default rule pool and a time-seeded random source.
func NewResolver(library *Library, opts ...Option) *Resolver {
	if library == nil {
		library = NewLibrary()
	}
	r := &Resolver{
		library:      library,
		registry:     NewDefaultRegistry(),
		pool:         DefaultRulePool(),
		fallbackSize: DefaultFallbackSize,
		maxDepth:     DefaultMaxDepth,
		logger:       slog.Default(),
		tracer:       otel.Tracer("rover/planner"),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.rng == nil {
		r.rng = random.NewPCG(0)
	}
	return r
}

// Library returns the plan library.
func (r *Resolver) Library() *Library { return r.library }

// Registry returns the condition and decision registry.
func (r *Resolver) Registry() *Registry { return r.registry }

// PlanFor returns the plan registered for goal. Unknown goals get a plan of
// random rules from the pool instead of an error.
func (r *Resolver) PlanFor(goal string) Plan {
	if plan, ok := r.library.Lookup(goal); ok {
		return plan
	}
	r.logger.Debug("unknown goal, using random fallback plan",
		slog.String("goal", goal),
		slog.Int("rules", r.fallbackSize),
	)
	plan, _ := r.RandomPlan(r.fallbackSize)
	return plan
}

// RandomPlan draws n rules uniformly, with replacement, from the rule pool.
func (r *Resolver) RandomPlan(n int) (Plan, error) {
	if n < 0 {
		return nil, errors.New(errors.CodeInvalidRuleCount, fmt.Sprintf("rule count %d must not be negative", n), nil).
			WithContext("n", n)
	}
	plan := make(Plan, 0, n)
	if len(r.pool) == 0 {
		return plan, nil
	}
	for i := 0; i < n; i++ {
		plan = append(plan, r.pool[r.rng.IntN(len(r.pool))])
	}
	return plan, nil
}

// Resolve returns the action selected by plan, or NoAction when no rule fires.
func (r *Resolver) Resolve(ctx context.Context, plan Plan, snap perception.Snapshot) (string, error) {
	res, err := r.resolveTraced(ctx, "", plan, snap)
	return res.Action, err
}

// ResolveGoal runs PlanFor(goal) then resolves it, recording the delegation path.
func (r *Resolver) ResolveGoal(ctx context.Context, goal string, snap perception.Snapshot) (Resolution, error) {
	return r.resolveTraced(ctx, goal, r.PlanFor(goal), snap)
}

func (r *Resolver) resolveTraced(ctx context.Context, goal string, plan Plan, snap perception.Snapshot) (Resolution, error) {
	_, span := r.tracer.Start(ctx, "Planner.Resolve",
		trace.WithAttributes(
			attribute.String("rover.goal", goal),
			attribute.Int("rover.plan.rules", len(plan)),
		),
	)
	defer span.End()

	var path []string
	if goal != "" {
		path = []string{goal}
	}
	action, path, err := r.resolve(plan, snap, 0, path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return Resolution{}, err
	}
	span.SetAttributes(attribute.String("rover.action", action))
	return Resolution{Action: action, Path: path}, nil
}

func (r *Resolver) resolve(plan Plan, snap perception.Snapshot, depth int, path []string) (string, []string, error) {
	if depth > r.maxDepth {
		return NoAction, nil, errors.New(errors.CodePlanCycle, fmt.Sprintf("delegation deeper than %d goals", r.maxDepth), nil).
			WithContext("path", path)
	}

	for i, rule := range plan {
		cond, err := r.registry.Condition(rule.When)
		if err != nil {
			return NoAction, nil, err
		}
		fired, err := cond(snap)
		if err != nil {
			return NoAction, nil, fmt.Errorf("rule %d condition %q: %w", i, rule.When, err)
		}
		if !fired {
			continue
		}

		switch rule.Then.Kind {
		case KindDelegate:
			sub, ok := r.library.Lookup(rule.Then.Name)
			if !ok {
				// A goal nobody registered reads as a plain action identifier.
				return rule.Then.Name, extend(path, rule.Then.Name), nil
			}
			action, subPath, err := r.resolve(sub, snap, depth+1, extend(path, rule.Then.Name))
			if err != nil {
				return NoAction, nil, err
			}
			if action != NoAction {
				return action, subPath, nil
			}
			// Nothing fired below: fall through to lower-priority rules.
		case KindCompute:
			decide, err := r.registry.Decision(rule.Then.Name)
			if err != nil {
				return NoAction, nil, err
			}
			action, err := decide(snap)
			if err != nil {
				return NoAction, nil, fmt.Errorf("decision %q: %w", rule.Then.Name, err)
			}
			return action, extend(path, rule.Then.Name), nil
		default:
			return rule.Then.Name, extend(path, rule.Then.Name), nil
		}
	}
	return NoAction, path, nil
}

func extend(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}
