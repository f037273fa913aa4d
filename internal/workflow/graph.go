// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

// Package workflow is the node/edge model behind the visual flow editor.
//
// A Graph is a value: every editing operation returns a new Graph and leaves
// the receiver untouched, so a failed batch of edits never leaves a half
// applied graph behind. Structural rules are checked on every edit; the
// stricter "runnable" rules (one trigger, everything reachable) only apply to
// workflows that are switched on.
package workflow

import (
	"fmt"
	"maps"

	"github.com/google/uuid"
)

// NodeType is the role of a node in a flow.
type NodeType string

const (
	NodeTrigger   NodeType = "trigger"
	NodeAction    NodeType = "action"
	NodeCondition NodeType = "condition"
	NodeDelay     NodeType = "delay"
)

// Valid reports whether t is a known node type.
func (t NodeType) Valid() bool {
	switch t {
	case NodeTrigger, NodeAction, NodeCondition, NodeDelay:
		return true
	}
	return false
}

// Condition nodes branch through these source handles.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// Size limits for a single graph.
const (
	MaxNodes = 200
	MaxEdges = 500
)

// Position is a node's canvas coordinate.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a step in the flow. Data holds type-specific settings as edited in
// the UI (trigger event, action name, delay seconds, condition expression).
type Node struct {
	ID       string         `json:"id"`
	Type     NodeType       `json:"type"`
	Label    string         `json:"label,omitempty"`
	Position Position       `json:"position"`
	Data     map[string]any `json:"data,omitempty"`
}

// Edge connects Source to Target. SourceHandle selects the branch of a
// condition node.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"source_handle,omitempty"`
	TargetHandle string `json:"target_handle,omitempty"`
	Label        string `json:"label,omitempty"`
}

// Graph is the editable flow.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone copies the graph. Node data maps are copied one level deep.
func (g Graph) Clone() Graph {
	c := Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	for i, n := range g.Nodes {
		n.Data = maps.Clone(n.Data)
		c.Nodes[i] = n
	}
	copy(c.Edges, g.Edges)
	return c
}

// Node returns the node with id.
func (g Graph) Node(id string) (Node, bool) {
	if i := g.nodeIndex(id); i >= 0 {
		return g.Nodes[i], true
	}
	return Node{}, false
}

func (g Graph) nodeIndex(id string) int {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return i
		}
	}
	return -1
}

func (g Graph) edgeIndex(id string) int {
	for i := range g.Edges {
		if g.Edges[i].ID == id {
			return i
		}
	}
	return -1
}

// AddNode appends n. An empty ID is filled with a fresh one.
func (g Graph) AddNode(n Node) (Graph, error) {
	if len(g.Nodes) >= MaxNodes {
		return g, fmt.Errorf("%w: more than %d nodes", ErrTooLarge, MaxNodes)
	}
	if !n.Type.Valid() {
		return g, fmt.Errorf("%w: %q", ErrUnknownNodeType, n.Type)
	}
	if n.ID == "" {
		n.ID = "node-" + uuid.NewString()
	}
	if g.nodeIndex(n.ID) >= 0 {
		return g, fmt.Errorf("%w: %q", ErrDuplicateNode, n.ID)
	}
	out := g.Clone()
	n.Data = maps.Clone(n.Data)
	out.Nodes = append(out.Nodes, n)
	return out, nil
}

// MoveNode sets a node's canvas position.
func (g Graph) MoveNode(id string, pos Position) (Graph, error) {
	i := g.nodeIndex(id)
	if i < 0 {
		return g, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	out := g.Clone()
	out.Nodes[i].Position = pos
	return out, nil
}

// UpdateNode replaces a node's label and/or data. Nil arguments are left as is.
func (g Graph) UpdateNode(id string, label *string, data map[string]any) (Graph, error) {
	i := g.nodeIndex(id)
	if i < 0 {
		return g, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	out := g.Clone()
	if label != nil {
		out.Nodes[i].Label = *label
	}
	if data != nil {
		out.Nodes[i].Data = maps.Clone(data)
	}
	return out, nil
}

// RemoveNode deletes a node together with every edge touching it.
func (g Graph) RemoveNode(id string) (Graph, error) {
	i := g.nodeIndex(id)
	if i < 0 {
		return g, fmt.Errorf("%w: %q", ErrNodeNotFound, id)
	}
	out := Graph{
		Nodes: make([]Node, 0, len(g.Nodes)-1),
		Edges: make([]Edge, 0, len(g.Edges)),
	}
	for j, n := range g.Nodes {
		if j != i {
			n.Data = maps.Clone(n.Data)
			out.Nodes = append(out.Nodes, n)
		}
	}
	for _, e := range g.Edges {
		if e.Source != id && e.Target != id {
			out.Edges = append(out.Edges, e)
		}
	}
	return out, nil
}

// Connect adds an edge. An empty ID is assigned a fresh one; duplicates are
// detected on the endpoints, not the ID.
func (g Graph) Connect(e Edge) (Graph, error) {
	if len(g.Edges) >= MaxEdges {
		return g, fmt.Errorf("%w: more than %d edges", ErrTooLarge, MaxEdges)
	}
	if err := g.checkEdge(e); err != nil {
		return g, err
	}
	if e.ID == "" {
		e.ID = newEdgeID()
	}
	if g.edgeIndex(e.ID) >= 0 {
		return g, fmt.Errorf("%w: id %q", ErrDuplicateEdge, e.ID)
	}
	if g.reaches(e.Target, e.Source) {
		return g, fmt.Errorf("%w: %s -> %s", ErrCycle, e.Source, e.Target)
	}
	out := g.Clone()
	out.Edges = append(out.Edges, e)
	return out, nil
}

// Disconnect removes an edge.
func (g Graph) Disconnect(id string) (Graph, error) {
	i := g.edgeIndex(id)
	if i < 0 {
		return g, fmt.Errorf("%w: %q", ErrEdgeNotFound, id)
	}
	out := g.Clone()
	out.Edges = append(out.Edges[:i], out.Edges[i+1:]...)
	return out, nil
}

// checkEdge applies the per-edge rules against the current nodes and edges.
func (g Graph) checkEdge(e Edge) error {
	if e.Source == e.Target {
		return fmt.Errorf("%w: %q", ErrSelfLoop, e.Source)
	}
	si := g.nodeIndex(e.Source)
	if si < 0 {
		return fmt.Errorf("%w: source %q", ErrDanglingEdge, e.Source)
	}
	if g.nodeIndex(e.Target) < 0 {
		return fmt.Errorf("%w: target %q", ErrDanglingEdge, e.Target)
	}
	if g.Nodes[si].Type == NodeCondition && e.SourceHandle != HandleTrue && e.SourceHandle != HandleFalse {
		return fmt.Errorf("%w: condition %q needs handle %q or %q", ErrInvalidHandle, e.Source, HandleTrue, HandleFalse)
	}
	for _, x := range g.Edges {
		if x.Source == e.Source && x.Target == e.Target &&
			x.SourceHandle == e.SourceHandle && x.TargetHandle == e.TargetHandle {
			return fmt.Errorf("%w: %s -> %s", ErrDuplicateEdge, e.Source, e.Target)
		}
	}
	return nil
}

// reaches reports whether to is reachable from from along existing edges.
func (g Graph) reaches(from, to string) bool {
	adj := g.adjacency()
	seen := map[string]bool{from: true}
	queue := []string{from}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur == to {
			return true
		}
		for _, next := range adj[cur] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}

func (g Graph) adjacency() map[string][]string {
	adj := make(map[string][]string, len(g.Nodes))
	for _, e := range g.Edges {
		adj[e.Source] = append(adj[e.Source], e.Target)
	}
	return adj
}

func newEdgeID() string {
	return "edge-" + uuid.NewString()
}
