package treespec

import (
	"fmt"
	"time"

	"github.com/gammazero/toposort"

	"github.com/aristath/behave/internal/btree"
)

// Validate checks that every ref and expand resolves to a defined
// tree and that the ref graph is acyclic, using gammazero/toposort.
// Expand nodes resolve their target lazily at evaluation time, so
// they may be recursive and contribute no ordering edges. Returns the
// tree names in dependency order (referenced trees first).
func Validate(f *File) ([]string, error) {
	for name, root := range f.Trees {
		for _, ref := range collectTargets(root) {
			if _, ok := f.Trees[ref]; !ok {
				return nil, fmt.Errorf("tree %q references undefined tree %q", name, ref)
			}
		}
	}

	// Build edges for topological sort
	var edges []toposort.Edge
	for name, root := range f.Trees {
		refs := collectRefs(root)
		if len(refs) == 0 {
			// Tree with no refs - add edge from nil to ensure it's included
			edges = append(edges, toposort.Edge{nil, name})
		} else {
			for _, ref := range refs {
				// Edge (ref, name) means ref must be built before name
				edges = append(edges, toposort.Edge{ref, name})
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("tree references contain a cycle: %w", err)
	}

	order := make([]string, 0, len(sorted))
	for _, name := range sorted {
		if name != nil {
			order = append(order, name.(string))
		}
	}
	return order, nil
}

func collectRefs(n *Node) []string { return collect(n, false) }

// collectTargets also includes expand targets, for existence checks.
func collectTargets(n *Node) []string { return collect(n, true) }

func collect(n *Node, expands bool) []string {
	if n == nil {
		return nil
	}
	var refs []string
	if n.Type == "ref" || (expands && n.Type == "expand") {
		refs = append(refs, n.Ref)
	}
	refs = append(refs, collect(n.Then, expands)...)
	refs = append(refs, collect(n.Else, expands)...)
	for _, c := range n.Children {
		refs = append(refs, collect(c, expands)...)
	}
	return refs
}

// Build validates the file and constructs the named tree against the
// registry. Referenced trees are built once each, in dependency
// order; ref nodes become closures over the built subtree so that
// expansion stays a per-visit step.
func Build(f *File, name string, reg *Registry) (*btree.Tree, error) {
	order, err := Validate(f)
	if err != nil {
		return nil, err
	}
	if _, ok := f.Trees[name]; !ok {
		return nil, fmt.Errorf("tree %q is not defined", name)
	}

	b := &builder{reg: reg, built: make(map[string]*btree.Tree)}
	for _, tn := range order {
		t, err := b.node(f.Trees[tn])
		if err != nil {
			return nil, fmt.Errorf("tree %q: %w", tn, err)
		}
		b.built[tn] = t
	}
	return b.built[name], nil
}

// BuildRoot builds the file's declared root tree.
func BuildRoot(f *File, reg *Registry) (*btree.Tree, error) {
	if f.Root == "" {
		return nil, fmt.Errorf("definition file declares no root tree")
	}
	return Build(f, f.Root, reg)
}

type builder struct {
	reg   *Registry
	built map[string]*btree.Tree
}

func (b *builder) node(n *Node) (*btree.Tree, error) {
	if n == nil {
		return nil, fmt.Errorf("missing node")
	}

	t, err := b.bare(n)
	if err != nil {
		return nil, err
	}
	if n.Label != "" {
		t = t.Named(n.Label)
	}
	return t, nil
}

func (b *builder) bare(n *Node) (*btree.Tree, error) {
	switch n.Type {
	case "succeed":
		return btree.Succeed(), nil

	case "fail":
		return btree.Fail(), nil

	case "test":
		s, ok := b.reg.stream(n.Event)
		if !ok {
			return nil, fmt.Errorf("test node: unknown event %q", n.Event)
		}
		return btree.Test(s), nil

	case "condition":
		s, ok := b.reg.signal(n.Signal)
		if !ok {
			return nil, fmt.Errorf("condition node: unknown signal %q", n.Signal)
		}
		return btree.TestSignal(s), nil

	case "wait":
		s, ok := b.reg.stream(n.Event)
		if !ok {
			return nil, fmt.Errorf("wait node: unknown event %q", n.Event)
		}
		return btree.Wait(s), nil

	case "timeout":
		if n.MS <= 0 {
			return nil, fmt.Errorf("timeout node: ms must be positive, got %d", n.MS)
		}
		return btree.Timeout(time.Duration(n.MS) * time.Millisecond), nil

	case "do":
		a, ok := b.reg.action(n.Action)
		if !ok {
			return nil, fmt.Errorf("do node: unknown action %q", n.Action)
		}
		return btree.Do(a), nil

	case "if":
		s, ok := b.reg.signal(n.Signal)
		if !ok {
			return nil, fmt.Errorf("if node: unknown signal %q", n.Signal)
		}
		then, err := b.node(n.Then)
		if err != nil {
			return nil, fmt.Errorf("if node, then branch: %w", err)
		}
		els, err := b.node(n.Else)
		if err != nil {
			return nil, fmt.Errorf("if node, else branch: %w", err)
		}
		return btree.If(s, then, els), nil

	case "sequence":
		kids, err := b.children(n)
		if err != nil {
			return nil, err
		}
		return btree.Sequence(n.Loop, kids...), nil

	case "select":
		strategy, err := strategyFor(n)
		if err != nil {
			return nil, err
		}
		kids, err := b.children(n)
		if err != nil {
			return nil, err
		}
		return btree.Select(strategy, kids...), nil

	case "parallel":
		policy, err := policyFor(n)
		if err != nil {
			return nil, err
		}
		kids, err := b.children(n)
		if err != nil {
			return nil, err
		}
		return btree.Parallel(policy, kids...), nil

	case "ref":
		target, ok := b.built[n.Ref]
		if !ok {
			// Validate ordered builds by dependency, so this only
			// happens when called without Build.
			return nil, fmt.Errorf("ref node: tree %q not built yet", n.Ref)
		}
		return btree.Closure(func() *btree.Tree { return target }), nil

	case "expand":
		// Looked up when the node is visited, after every tree in the
		// file has been built, so expansion may be recursive.
		name := n.Ref
		built := b.built
		return btree.Closure(func() *btree.Tree { return built[name] }), nil

	default:
		return nil, fmt.Errorf("unknown node type %q", n.Type)
	}
}

func (b *builder) children(n *Node) ([]*btree.Tree, error) {
	if len(n.Children) == 0 {
		return nil, fmt.Errorf("%s node needs at least one child", n.Type)
	}
	kids := make([]*btree.Tree, len(n.Children))
	for i, c := range n.Children {
		t, err := b.node(c)
		if err != nil {
			return nil, fmt.Errorf("%s node, child %d: %w", n.Type, i, err)
		}
		kids[i] = t
	}
	return kids, nil
}

func strategyFor(n *Node) (btree.Strategy, error) {
	switch n.Strategy {
	case "", "in-order":
		return btree.InOrder(), nil
	case "random":
		return btree.Random(n.P), nil
	default:
		return nil, fmt.Errorf("unknown select strategy %q", n.Strategy)
	}
}

func policyFor(n *Node) (btree.Policy, error) {
	switch n.Policy {
	case "", "forall":
		return btree.Forall, nil
	case "exists":
		return btree.Exists, nil
	default:
		return btree.Forall, fmt.Errorf("unknown parallel policy %q", n.Policy)
	}
}
