// Package treespec loads behavior tree definitions from JSON and
// builds runnable trees against a registry of named events, signals,
// and actions.
package treespec

import (
	"encoding/json"
	"fmt"
	"os"
)

// Node is the JSON form of one tree node. Type selects the node kind;
// the remaining fields apply only to the kinds that use them.
type Node struct {
	Type     string  `json:"type"`
	Label    string  `json:"label,omitempty"`
	Event    string  `json:"event,omitempty"`    // stream name for test/wait
	Signal   string  `json:"signal,omitempty"`   // signal name for condition/if
	Action   string  `json:"action,omitempty"`   // action name for do
	MS       int     `json:"ms,omitempty"`       // timeout duration in milliseconds
	Loop     bool    `json:"loop,omitempty"`     // sequence restarts after its last child
	Strategy string  `json:"strategy,omitempty"` // "in-order" (default) or "random"
	P        float64 `json:"p,omitempty"`        // exhaustion probability for "random"
	Policy   string  `json:"policy,omitempty"`   // "forall" (default) or "exists"
	Then     *Node   `json:"then,omitempty"`
	Else     *Node   `json:"else,omitempty"`
	Children []*Node `json:"children,omitempty"`
	Ref      string  `json:"ref,omitempty"` // named tree reference (ref/expand)
}

// File is a parsed definition file: a set of named trees plus the name
// of the one to run by default.
type File struct {
	Trees map[string]*Node `json:"trees"`
	Root  string           `json:"root,omitempty"`
}

// Parse decodes a definition file and checks its basic shape. Ref
// resolution and cycle detection happen later, in Validate.
func Parse(data []byte) (*File, error) {
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing tree definitions: %w", err)
	}
	if len(f.Trees) == 0 {
		return nil, fmt.Errorf("definition file declares no trees")
	}
	if f.Root != "" {
		if _, ok := f.Trees[f.Root]; !ok {
			return nil, fmt.Errorf("root tree %q is not defined", f.Root)
		}
	}
	return &f, nil
}

// LoadFile reads and parses a definition file from disk.
func LoadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading tree definitions: %w", err)
	}
	f, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return f, nil
}
