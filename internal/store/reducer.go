package store

import (
	"fmt"
	"slices"

	"github.com/dshills/julook/internal/effect"
	"github.com/dshills/julook/internal/nav"
)

// Reducer evolves state in response to an action and describes any
// follow-up work as an effect. Reduce must not block or perform I/O.
type Reducer[S, A any] interface {
	Reduce(state *S, action A) effect.Effect[A]
}

// ReducerFunc adapts a function to the Reducer interface.
type ReducerFunc[S, A any] func(state *S, action A) effect.Effect[A]

// Reduce implements Reducer.
func (f ReducerFunc[S, A]) Reduce(state *S, action A) effect.Effect[A] {
	return f(state, action)
}

// Lens focuses on a child value inside a parent value.
type Lens[P, C any] struct {
	Get func(P) C
	Set func(*P, C)
}

// Case focuses on one case of a parent action.
type Case[PA, CA any] struct {
	Extract func(PA) (CA, bool)
	Embed   func(CA) PA
}

// Combine runs reducers in order on the same state and merges their effects.
// Earlier reducers see the action first, so child reducers listed before a
// parent reducer have already run when the parent inspects the state.
func Combine[S, A any](reducers ...Reducer[S, A]) Reducer[S, A] {
	return ReducerFunc[S, A](func(state *S, action A) effect.Effect[A] {
		effects := make([]effect.Effect[A], 0, len(reducers))
		for _, r := range reducers {
			effects = append(effects, r.Reduce(state, action))
		}
		return effect.Merge(effects...)
	})
}

// Pullback runs child on the slice of state selected by lens for every
// action matching c. Child effects are lifted back into parent actions.
func Pullback[S, A, CS, CA any](child Reducer[CS, CA], lens Lens[S, CS], c Case[A, CA]) Reducer[S, A] {
	return ReducerFunc[S, A](func(state *S, action A) effect.Effect[A] {
		ca, ok := c.Extract(action)
		if !ok {
			return effect.None[A]()
		}
		cs := lens.Get(*state)
		eff := child.Reduce(&cs, ca)
		lens.Set(state, cs)
		return effect.Map(eff, c.Embed)
	})
}

// IfLet composes a parent reducer with a child whose state is optional.
// The child runs first, only while its state is present; its effects belong
// to the cancellation group id and are cancelled as soon as the parent
// clears the child state.
func IfLet[S, A, CS, CA any](parent Reducer[S, A], lens Lens[S, *CS], c Case[A, CA], child Reducer[CS, CA], id effect.ID) Reducer[S, A] {
	return ReducerFunc[S, A](func(state *S, action A) effect.Effect[A] {
		childEff := effect.None[A]()
		if ca, ok := c.Extract(action); ok {
			if ptr := lens.Get(*state); ptr != nil {
				cs := *ptr
				eff := child.Reduce(&cs, ca)
				lens.Set(state, &cs)
				childEff = effect.Map(eff, c.Embed).CancelGroup(id)
			}
		}

		wasPresent := lens.Get(*state) != nil
		parentEff := parent.Reduce(state, action)
		if wasPresent && lens.Get(*state) == nil {
			return effect.Merge(childEff, parentEff, effect.Cancel[A](id))
		}
		return effect.Merge(childEff, parentEff)
	})
}

// RouteID is the cancellation group of the route entry id in the stack
// identified by prefix.
func RouteID(prefix string, id nav.EntryID) effect.ID {
	return effect.ID(fmt.Sprintf("%s.route.%d", prefix, id))
}

// ForEach composes a parent reducer with a child reducer applied to the
// entries of a navigation stack. Element actions are routed to the entry
// they address and dropped if it no longer exists. Effects of an entry are
// cancelled when the entry leaves the stack, except detached ones.
func ForEach[S, A, R, RA any](
	parent Reducer[S, A],
	lens Lens[S, nav.Stack[R]],
	c Case[A, nav.ElementAction[RA]],
	child Reducer[R, RA],
	prefix string,
) Reducer[S, A] {
	return ReducerFunc[S, A](func(state *S, action A) effect.Effect[A] {
		childEff := effect.None[A]()
		if ea, ok := c.Extract(action); ok {
			stack := lens.Get(*state)
			var eff effect.Effect[RA]
			if stack.Update(ea.ID, func(r *R) { eff = child.Reduce(r, ea.Action) }) {
				lens.Set(state, stack)
				id := ea.ID
				childEff = effect.Map(eff, func(ra RA) A {
					return c.Embed(nav.ElementAction[RA]{ID: id, Action: ra})
				}).CancelGroup(RouteID(prefix, id))
			}
		}

		before := lens.Get(*state).IDs()
		parentEff := parent.Reduce(state, action)
		after := lens.Get(*state).IDs()

		var removed []effect.ID
		for _, id := range before {
			if !slices.Contains(after, id) {
				removed = append(removed, RouteID(prefix, id))
			}
		}
		return effect.Merge(childEff, parentEff, effect.Cancel[A](removed...))
	})
}
