package btree

import "math/rand"

// Strategy produces a chooser for one Select evaluation: a stateful
// generator that, each time it is called, yields the next candidate
// subtree to try, or nil once there are no more candidates. A fresh
// chooser is created per evaluation and never reused, so strategies
// must not share mutable state across calls.
type Strategy func(children []*Tree) func() *Tree

// InOrder yields children left to right and exhausts after the last.
func InOrder() Strategy {
	return func(children []*Tree) func() *Tree {
		i := 0
		return func() *Tree {
			if i >= len(children) {
				return nil
			}
			t := children[i]
			i++
			return t
		}
	}
}

// Random yields a uniformly random child on each call, or declares
// exhaustion with probability p. The same child may be yielded
// repeatedly, and with p = 0 the chooser never exhausts.
func Random(p float64) Strategy {
	return RandomSource(p, nil)
}

// RandomSource is Random with an explicit random source, for
// deterministic selection in tests. A nil rng uses the shared global
// source.
func RandomSource(p float64, rng *rand.Rand) Strategy {
	intn := rand.Intn
	float := rand.Float64
	if rng != nil {
		intn = rng.Intn
		float = rng.Float64
	}
	return func(children []*Tree) func() *Tree {
		return func() *Tree {
			if float() < p {
				return nil
			}
			return children[intn(len(children))]
		}
	}
}
