package worldstate

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// genFactName draws from a small alphabet so generated states overlap.
func genFactName() gopter.Gen {
	return gen.OneConstOf("a", "b", "c", "d", "e", "f")
}

func genValue() gopter.Gen {
	return gen.OneGenOf(
		gen.Bool().Map(func(v bool) Value { return Bool(v) }),
		gen.Int64Range(-3, 3).Map(func(v int64) Value { return Int(v) }),
		gen.OneConstOf("x", "y").Map(func(v string) Value { return String(v) }),
	)
}

func genFact() gopter.Gen {
	return gopter.CombineGens(genFactName(), genValue()).Map(func(values []interface{}) Fact {
		return Fact{Name: values[0].(string), Value: values[1].(Value)}
	})
}

func genState() gopter.Gen {
	return gen.SliceOf(genFact()).Map(func(facts []Fact) State {
		return New(facts...)
	})
}

func TestSatisfies_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 8
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)

	properties.Property("a state satisfies any subset of itself", prop.ForAll(
		func(s State, drop string) bool {
			return Satisfies(s.Without(drop), s) && Satisfies(s, s)
		},
		genState(), genFactName(),
	))

	properties.Property("changing a required value breaks satisfaction", prop.ForAll(
		func(s State, name string) bool {
			v, ok := s.Get(name)
			if !ok {
				return true
			}
			var changed Value
			switch v.Kind() {
			case KindBool:
				b, _ := v.AsBool()
				changed = Bool(!b)
			case KindInt:
				i, _ := v.AsInt()
				changed = Int(i + 100)
			default:
				str, _ := v.AsString()
				changed = String(str + "!")
			}
			return !Satisfies(s.With(name, changed), s)
		},
		genState(), genFactName(),
	))

	properties.Property("removing a required name breaks satisfaction", prop.ForAll(
		func(s State, name string) bool {
			if !s.Has(name) {
				return true
			}
			return !Satisfies(s, s.Without(name))
		},
		genState(), genFactName(),
	))

	properties.TestingRun(t)
}

func TestApply_Properties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	parameters.MaxSize = 8
	parameters.Rng.Seed(42)

	properties := gopter.NewProperties(parameters)

	properties.Property("effects always hold afterwards", prop.ForAll(
		func(s, e State) bool {
			return Satisfies(e, Apply(s, e))
		},
		genState(), genState(),
	))

	properties.Property("names absent from effects are preserved", prop.ForAll(
		func(s, e State) bool {
			out := Apply(s, e)
			for name, v := range s.All() {
				if e.Has(name) {
					continue
				}
				if got, ok := out.Get(name); !ok || got != v {
					return false
				}
			}
			return true
		},
		genState(), genState(),
	))

	properties.Property("result holds exactly the union of names", prop.ForAll(
		func(s, e State) bool {
			out := Apply(s, e)
			for name := range out.All() {
				if !s.Has(name) && !e.Has(name) {
					return false
				}
			}
			union := s.Len()
			for name := range e.All() {
				if !s.Has(name) {
					union++
				}
			}
			return out.Len() == union
		},
		genState(), genState(),
	))

	properties.Property("inputs are never mutated", prop.ForAll(
		func(s, e State) bool {
			sBefore, eBefore := s.Clone(), e.Clone()
			_ = Apply(s, e)
			return s.Equal(sBefore) && e.Equal(eBefore) &&
				s.String() == sBefore.String() && e.String() == eBefore.String()
		},
		genState(), genState(),
	))

	properties.TestingRun(t)
}
