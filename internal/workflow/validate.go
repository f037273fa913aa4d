// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package workflow

import (
	"errors"
	"fmt"
	"sort"
)

// Structural errors.
var (
	ErrDuplicateNode   = errors.New("duplicate node id")
	ErrUnknownNodeType = errors.New("unknown node type")
	ErrNodeNotFound    = errors.New("node not found")
	ErrEdgeNotFound    = errors.New("edge not found")
	ErrSelfLoop        = errors.New("edge connects a node to itself")
	ErrDuplicateEdge   = errors.New("duplicate edge")
	ErrDanglingEdge    = errors.New("edge references a missing node")
	ErrInvalidHandle   = errors.New("invalid source handle")
	ErrCycle           = errors.New("graph contains a cycle")
	ErrTooLarge        = errors.New("graph too large")
)

// Runnable errors; only enforced for enabled workflows.
var (
	ErrNoTrigger        = errors.New("workflow has no trigger")
	ErrMultipleTriggers = errors.New("workflow has more than one trigger")
	ErrTriggerHasInput  = errors.New("trigger has an incoming edge")
	ErrUnreachable      = errors.New("node is not reachable from the trigger")
	ErrMissingSetting   = errors.New("node is missing a required setting")
)

// Problem is one finding of a validation run.
type Problem struct {
	Err    error  `json:"-"`
	Code   string `json:"code"`
	NodeID string `json:"node_id,omitempty"`
	EdgeID string `json:"edge_id,omitempty"`
	Detail string `json:"message"`
}

func (p Problem) Error() string { return p.Detail }

func (p Problem) Unwrap() error { return p.Err }

func problem(err error, code, nodeID, edgeID, format string, args ...any) Problem {
	return Problem{
		Err:    err,
		Code:   code,
		NodeID: nodeID,
		EdgeID: edgeID,
		Detail: fmt.Sprintf("%s: %s", err.Error(), fmt.Sprintf(format, args...)),
	}
}

// Validate returns the first structural problem, or nil.
func (g Graph) Validate() error {
	if ps := g.Check(false); len(ps) > 0 {
		return ps[0]
	}
	return nil
}

// ValidateRunnable is Validate plus the rules an enabled workflow must meet.
func (g Graph) ValidateRunnable() error {
	if ps := g.Check(true); len(ps) > 0 {
		return ps[0]
	}
	return nil
}

// Check lists every problem in the graph. Runnable rules are included when
// runnable is true and the graph is structurally sound.
func (g Graph) Check(runnable bool) []Problem {
	var ps []Problem

	if len(g.Nodes) > MaxNodes {
		ps = append(ps, problem(ErrTooLarge, "too_large", "", "", "%d nodes, limit %d", len(g.Nodes), MaxNodes))
	}
	if len(g.Edges) > MaxEdges {
		ps = append(ps, problem(ErrTooLarge, "too_large", "", "", "%d edges, limit %d", len(g.Edges), MaxEdges))
	}

	types := make(map[string]NodeType, len(g.Nodes))
	for _, n := range g.Nodes {
		switch {
		case n.ID == "":
			ps = append(ps, problem(ErrNodeNotFound, "missing_node_id", "", "", "node without id"))
		case types[n.ID] != "":
			ps = append(ps, problem(ErrDuplicateNode, "duplicate_node", n.ID, "", "%q", n.ID))
		case !n.Type.Valid():
			ps = append(ps, problem(ErrUnknownNodeType, "unknown_node_type", n.ID, "", "%q", n.Type))
		}
		if n.ID != "" && types[n.ID] == "" {
			types[n.ID] = n.Type
		}
	}

	edgeIDs := make(map[string]bool, len(g.Edges))
	type key struct{ s, t, sh, th string }
	seen := make(map[key]bool, len(g.Edges))
	for _, e := range g.Edges {
		switch {
		case e.ID == "" || edgeIDs[e.ID]:
			ps = append(ps, problem(ErrDuplicateEdge, "duplicate_edge", "", e.ID, "edge id %q missing or repeated", e.ID))
		case e.Source == e.Target:
			ps = append(ps, problem(ErrSelfLoop, "self_loop", e.Source, e.ID, "%q", e.Source))
		case types[e.Source] == "" || types[e.Target] == "":
			ps = append(ps, problem(ErrDanglingEdge, "dangling_edge", "", e.ID, "%s -> %s", e.Source, e.Target))
		case types[e.Source] == NodeCondition && e.SourceHandle != HandleTrue && e.SourceHandle != HandleFalse:
			ps = append(ps, problem(ErrInvalidHandle, "invalid_handle", e.Source, e.ID, "handle %q", e.SourceHandle))
		case seen[key{e.Source, e.Target, e.SourceHandle, e.TargetHandle}]:
			ps = append(ps, problem(ErrDuplicateEdge, "duplicate_edge", "", e.ID, "%s -> %s", e.Source, e.Target))
		}
		edgeIDs[e.ID] = true
		seen[key{e.Source, e.Target, e.SourceHandle, e.TargetHandle}] = true
	}

	if len(ps) == 0 {
		if _, err := g.TopologicalOrder(); err != nil {
			ps = append(ps, problem(ErrCycle, "cycle", "", "", "edges form a loop"))
		}
	}

	if runnable && len(ps) == 0 {
		ps = append(ps, g.checkRunnable()...)
	}
	return ps
}

func (g Graph) checkRunnable() []Problem {
	var ps []Problem

	var triggers []string
	for _, n := range g.Nodes {
		if n.Type == NodeTrigger {
			triggers = append(triggers, n.ID)
		}
		if p, ok := checkSettings(n); !ok {
			ps = append(ps, p)
		}
	}
	switch len(triggers) {
	case 0:
		return append(ps, problem(ErrNoTrigger, "no_trigger", "", "", "add a trigger node"))
	case 1:
	default:
		return append(ps, problem(ErrMultipleTriggers, "multiple_triggers", triggers[1], "", "%d triggers", len(triggers)))
	}
	trigger := triggers[0]

	for _, e := range g.Edges {
		if e.Target == trigger {
			ps = append(ps, problem(ErrTriggerHasInput, "trigger_has_input", trigger, e.ID, "from %q", e.Source))
		}
	}

	adj := g.adjacency()
	reached := map[string]bool{trigger: true}
	queue := []string{trigger}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, next := range adj[cur] {
			if !reached[next] {
				reached[next] = true
				queue = append(queue, next)
			}
		}
	}
	for _, n := range g.Nodes {
		if !reached[n.ID] {
			ps = append(ps, problem(ErrUnreachable, "unreachable", n.ID, "", "%q", n.ID))
		}
	}
	return ps
}

// checkSettings enforces the one Data key each node type needs to run.
func checkSettings(n Node) (Problem, bool) {
	var field string
	switch n.Type {
	case NodeTrigger:
		field = "event"
	case NodeAction:
		field = "action"
	case NodeCondition:
		field = "expression"
	case NodeDelay:
		if secs, ok := n.Data["seconds"].(float64); ok && secs > 0 {
			return Problem{}, true
		}
		return problem(ErrMissingSetting, "missing_setting", n.ID, "", "delay %q needs positive seconds", n.ID), false
	}
	if s, ok := n.Data[field].(string); ok && s != "" {
		return Problem{}, true
	}
	return problem(ErrMissingSetting, "missing_setting", n.ID, "", "%s %q needs %s", n.Type, n.ID, field), false
}

// TopologicalOrder returns node IDs so that every edge points forward.
// Ties are broken by node ID to keep the order stable.
func (g Graph) TopologicalOrder() ([]string, error) {
	indeg := make(map[string]int, len(g.Nodes))
	for _, n := range g.Nodes {
		indeg[n.ID] = 0
	}
	for _, e := range g.Edges {
		if _, ok := indeg[e.Target]; ok {
			indeg[e.Target]++
		}
	}

	var ready []string
	for id, d := range indeg {
		if d == 0 {
			ready = append(ready, id)
		}
	}
	sort.Strings(ready)

	adj := g.adjacency()
	order := make([]string, 0, len(g.Nodes))
	for len(ready) > 0 {
		cur := ready[0]
		ready = ready[1:]
		order = append(order, cur)

		var freed []string
		for _, next := range adj[cur] {
			if _, ok := indeg[next]; !ok {
				continue
			}
			indeg[next]--
			if indeg[next] == 0 {
				freed = append(freed, next)
			}
		}
		if len(freed) > 0 {
			ready = append(ready, freed...)
			sort.Strings(ready)
		}
	}
	if len(order) != len(indeg) {
		return nil, ErrCycle
	}
	return order, nil
}
