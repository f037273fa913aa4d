// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package workflow

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

// linear builds trigger -> action -> delay with runnable settings.
func linear(t *testing.T) Graph {
	t.Helper()
	g := Graph{}
	var err error
	for _, n := range []Node{
		{ID: "t", Type: NodeTrigger, Data: map[string]any{"event": "new_follower"}},
		{ID: "a", Type: NodeAction, Data: map[string]any{"action": "send_dm"}},
		{ID: "d", Type: NodeDelay, Data: map[string]any{"seconds": float64(30)}},
	} {
		if g, err = g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	for _, e := range []Edge{{Source: "t", Target: "a"}, {Source: "a", Target: "d"}} {
		if g, err = g.Connect(e); err != nil {
			t.Fatalf("Connect(%s->%s): %v", e.Source, e.Target, err)
		}
	}
	return g
}

// ============================================================
// Node operations
// ============================================================

func TestAddNode(t *testing.T) {
	g := Graph{}

	g2, err := g.AddNode(Node{Type: NodeAction})
	if err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if len(g.Nodes) != 0 {
		t.Error("AddNode mutated the receiver")
	}
	if len(g2.Nodes) != 1 || g2.Nodes[0].ID == "" {
		t.Fatalf("expected one node with generated id, got %+v", g2.Nodes)
	}

	if _, err := g2.AddNode(Node{ID: g2.Nodes[0].ID, Type: NodeAction}); !errors.Is(err, ErrDuplicateNode) {
		t.Errorf("duplicate id error = %v, want ErrDuplicateNode", err)
	}
	if _, err := g2.AddNode(Node{Type: "webhook"}); !errors.Is(err, ErrUnknownNodeType) {
		t.Errorf("unknown type error = %v, want ErrUnknownNodeType", err)
	}
}

func TestAddNodeLimit(t *testing.T) {
	g := Graph{Nodes: make([]Node, MaxNodes)}
	if _, err := g.AddNode(Node{Type: NodeAction}); !errors.Is(err, ErrTooLarge) {
		t.Errorf("error = %v, want ErrTooLarge", err)
	}
}

func TestMoveAndUpdateNode(t *testing.T) {
	g := linear(t)

	moved, err := g.MoveNode("a", Position{X: 10, Y: 20})
	if err != nil {
		t.Fatalf("MoveNode: %v", err)
	}
	n, _ := moved.Node("a")
	if n.Position != (Position{X: 10, Y: 20}) {
		t.Errorf("position = %+v", n.Position)
	}
	if orig, _ := g.Node("a"); orig.Position != (Position{}) {
		t.Error("MoveNode mutated the receiver")
	}

	label := "DM new followers"
	updated, err := moved.UpdateNode("a", &label, map[string]any{"action": "send_dm", "template": "hi"})
	if err != nil {
		t.Fatalf("UpdateNode: %v", err)
	}
	n, _ = updated.Node("a")
	if n.Label != label || n.Data["template"] != "hi" {
		t.Errorf("node = %+v", n)
	}

	if _, err := g.MoveNode("missing", Position{}); !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("MoveNode missing error = %v", err)
	}
}

func TestRemoveNodeCascadesEdges(t *testing.T) {
	g := linear(t)

	g2, err := g.RemoveNode("a")
	if err != nil {
		t.Fatalf("RemoveNode: %v", err)
	}
	if len(g2.Nodes) != 2 {
		t.Errorf("nodes = %d, want 2", len(g2.Nodes))
	}
	if len(g2.Edges) != 0 {
		t.Errorf("edges = %+v, want none", g2.Edges)
	}
	if len(g.Edges) != 2 {
		t.Error("RemoveNode mutated the receiver")
	}
}

// ============================================================
// Edge operations
// ============================================================

func TestConnectRules(t *testing.T) {
	g := linear(t)
	g, _ = g.AddNode(Node{ID: "c", Type: NodeCondition})

	tests := []struct {
		name string
		edge Edge
		want error
	}{
		{"self loop", Edge{Source: "a", Target: "a"}, ErrSelfLoop},
		{"missing source", Edge{Source: "x", Target: "a"}, ErrDanglingEdge},
		{"missing target", Edge{Source: "a", Target: "x"}, ErrDanglingEdge},
		{"duplicate", Edge{Source: "t", Target: "a"}, ErrDuplicateEdge},
		{"cycle", Edge{Source: "d", Target: "t"}, ErrCycle},
		{"condition without handle", Edge{Source: "c", Target: "a"}, ErrInvalidHandle},
		{"condition bad handle", Edge{Source: "c", Target: "a", SourceHandle: "maybe"}, ErrInvalidHandle},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := g.Connect(tt.edge); !errors.Is(err, tt.want) {
				t.Errorf("Connect error = %v, want %v", err, tt.want)
			}
		})
	}

	g2, err := g.Connect(Edge{Source: "c", Target: "a", SourceHandle: HandleTrue})
	if err != nil {
		t.Fatalf("Connect condition branch: %v", err)
	}
	if got := g2.Edges[len(g2.Edges)-1].ID; !strings.HasPrefix(got, "edge-") {
		t.Errorf("generated edge id = %q, want edge- prefix", got)
	}
}

func TestConnectDistinguishesHandlesFromNodeIDs(t *testing.T) {
	g := Graph{}
	var err error
	for _, n := range []Node{
		{ID: "x", Type: NodeCondition},
		{ID: "x.true", Type: NodeAction},
		{ID: "y", Type: NodeAction},
	} {
		if g, err = g.AddNode(n); err != nil {
			t.Fatalf("AddNode(%s): %v", n.ID, err)
		}
	}
	if g, err = g.Connect(Edge{Source: "x.true", Target: "y"}); err != nil {
		t.Fatalf("Connect(x.true -> y): %v", err)
	}
	if g, err = g.Connect(Edge{Source: "x", SourceHandle: HandleTrue, Target: "y"}); err != nil {
		t.Fatalf("Connect(x[true] -> y) = %v, want distinct edge", err)
	}
	if g.Edges[0].ID == g.Edges[1].ID {
		t.Errorf("edge ids collide: %q", g.Edges[0].ID)
	}
}

func TestDisconnect(t *testing.T) {
	g := linear(t)
	id := g.Edges[0].ID

	g2, err := g.Disconnect(id)
	if err != nil {
		t.Fatalf("Disconnect: %v", err)
	}
	if len(g2.Edges) != 1 || len(g.Edges) != 2 {
		t.Errorf("edges after = %d, before = %d", len(g2.Edges), len(g.Edges))
	}
	if _, err := g2.Disconnect(id); !errors.Is(err, ErrEdgeNotFound) {
		t.Errorf("second Disconnect error = %v", err)
	}
}

// ============================================================
// Batches
// ============================================================

func TestApplyIsAtomic(t *testing.T) {
	g := linear(t)
	pos := Position{X: 5, Y: 5}

	_, err := g.Apply([]Change{
		{Type: ChangeNodeMove, ID: "a", Position: &pos},
		{Type: ChangeEdgeAdd, Edge: &Edge{Source: "d", Target: "t"}},
	})
	if !errors.Is(err, ErrCycle) {
		t.Fatalf("Apply error = %v, want ErrCycle", err)
	}
	if n, _ := g.Node("a"); n.Position != (Position{}) {
		t.Error("failed batch leaked a change")
	}

	triggerEdge := g.Edges[0].ID
	out, err := g.Apply([]Change{
		{Type: ChangeNodeAdd, Node: &Node{ID: "b", Type: NodeAction, Data: map[string]any{"action": "like"}}},
		{Type: ChangeEdgeAdd, Edge: &Edge{Source: "d", Target: "b"}},
		{Type: ChangeNodeMove, ID: "b", Position: &pos},
		{Type: ChangeEdgeRemove, ID: triggerEdge},
		{Type: ChangeNodeRemove, ID: "a"},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if len(out.Nodes) != 3 || len(out.Edges) != 1 {
		t.Errorf("result = %d nodes, %d edges; want 3, 1", len(out.Nodes), len(out.Edges))
	}
}

func TestApplyRejectsIncompleteChange(t *testing.T) {
	g := linear(t)
	for _, c := range []Change{
		{Type: ChangeNodeAdd},
		{Type: ChangeNodeMove, ID: "a"},
		{Type: ChangeNodeUpdate, ID: "a"},
		{Type: ChangeEdgeRemove},
		{Type: "node_paint"},
	} {
		if _, err := g.Apply([]Change{c}); !errors.Is(err, ErrInvalidChange) {
			t.Errorf("Apply(%+v) error = %v, want ErrInvalidChange", c, err)
		}
	}
}

// ============================================================
// Validation
// ============================================================

func TestValidateRunnable(t *testing.T) {
	g := linear(t)
	if err := g.ValidateRunnable(); err != nil {
		t.Fatalf("linear graph should be runnable: %v", err)
	}

	orphan, _ := g.AddNode(Node{ID: "z", Type: NodeAction, Data: map[string]any{"action": "like"}})
	if err := orphan.Validate(); err != nil {
		t.Errorf("orphan node is structurally fine, got %v", err)
	}
	if err := orphan.ValidateRunnable(); !errors.Is(err, ErrUnreachable) {
		t.Errorf("ValidateRunnable = %v, want ErrUnreachable", err)
	}

	second, _ := g.AddNode(Node{ID: "t2", Type: NodeTrigger, Data: map[string]any{"event": "x"}})
	if err := second.ValidateRunnable(); !errors.Is(err, ErrMultipleTriggers) {
		t.Errorf("ValidateRunnable = %v, want ErrMultipleTriggers", err)
	}

	noTrigger, _ := g.RemoveNode("t")
	if err := noTrigger.ValidateRunnable(); !errors.Is(err, ErrNoTrigger) {
		t.Errorf("ValidateRunnable = %v, want ErrNoTrigger", err)
	}

	unset, _ := g.UpdateNode("d", nil, map[string]any{"seconds": float64(0)})
	if err := unset.ValidateRunnable(); !errors.Is(err, ErrMissingSetting) {
		t.Errorf("ValidateRunnable = %v, want ErrMissingSetting", err)
	}
}

func TestValidateRunnableNodeSettings(t *testing.T) {
	tests := []struct {
		name string
		node Node
		want bool
	}{
		{"trigger with event", Node{Type: NodeTrigger, Data: map[string]any{"event": "new_post"}}, true},
		{"trigger without event", Node{Type: NodeTrigger}, false},
		{"action with action", Node{Type: NodeAction, Data: map[string]any{"action": "like"}}, true},
		{"action with empty action", Node{Type: NodeAction, Data: map[string]any{"action": ""}}, false},
		{"condition with expression", Node{Type: NodeCondition, Data: map[string]any{"expression": "likes > 10"}}, true},
		{"condition without expression", Node{Type: NodeCondition}, false},
		{"delay with seconds", Node{Type: NodeDelay, Data: map[string]any{"seconds": float64(5)}}, true},
		{"delay with string seconds", Node{Type: NodeDelay, Data: map[string]any{"seconds": "5"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := checkSettings(tt.node)
			if ok != tt.want {
				t.Errorf("checkSettings(%s) ok = %v, want %v", tt.name, ok, tt.want)
			}
		})
	}
}

func TestCheckFindsHandBuiltProblems(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a", Type: NodeAction}, {ID: "a", Type: NodeAction}, {ID: "b", Type: "bogus"}},
		Edges: []Edge{{ID: "e1", Source: "a", Target: "ghost"}, {ID: "e1", Source: "a", Target: "b"}},
	}
	codes := map[string]bool{}
	for _, p := range g.Check(false) {
		codes[p.Code] = true
	}
	for _, want := range []string{"duplicate_node", "unknown_node_type", "dangling_edge", "duplicate_edge"} {
		if !codes[want] {
			t.Errorf("Check missing %s; got %v", want, codes)
		}
	}
}

func TestCheckDetectsCycleInStoredGraph(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "a", Type: NodeAction}, {ID: "b", Type: NodeAction}},
		Edges: []Edge{{ID: "1", Source: "a", Target: "b"}, {ID: "2", Source: "b", Target: "a"}},
	}
	if err := g.Validate(); !errors.Is(err, ErrCycle) {
		t.Errorf("Validate = %v, want ErrCycle", err)
	}
}

func TestTopologicalOrderIsStable(t *testing.T) {
	g := Graph{
		Nodes: []Node{{ID: "c"}, {ID: "b"}, {ID: "a"}, {ID: "d"}},
		Edges: []Edge{{Source: "a", Target: "d"}, {Source: "b", Target: "d"}, {Source: "c", Target: "a"}},
	}
	got, err := g.TopologicalOrder()
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"b", "c", "a", "d"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("order = %v, want %v", got, want)
	}
}

func TestWorkflowValidate(t *testing.T) {
	w := &Workflow{Name: "Welcome DM", Graph: linear(t)}
	if err := w.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	w.Name = "  "
	if err := w.Validate(); !errors.Is(err, ErrInvalidName) {
		t.Errorf("blank name error = %v", err)
	}

	w.Name = "Draft"
	w.Graph, _ = w.Graph.RemoveNode("t")
	if err := w.Validate(); err != nil {
		t.Errorf("disabled draft without trigger should validate: %v", err)
	}
	w.Enabled = true
	if err := w.Validate(); !errors.Is(err, ErrNoTrigger) {
		t.Errorf("enabled without trigger error = %v", err)
	}
}

func TestInspect(t *testing.T) {
	r := Inspect(linear(t))
	if !r.Valid || !r.Runnable || len(r.Problems) != 0 {
		t.Fatalf("report = %+v", r)
	}
	if !reflect.DeepEqual(r.Order, []string{"t", "a", "d"}) {
		t.Errorf("order = %v", r.Order)
	}

	g, _ := linear(t).RemoveNode("t")
	r = Inspect(g)
	if !r.Valid || r.Runnable {
		t.Errorf("report = %+v, want valid but not runnable", r)
	}
}

func TestCloneIsolatesData(t *testing.T) {
	g := linear(t)
	c := g.Clone()
	c.Nodes[0].Data["event"] = "changed"
	if g.Nodes[0].Data["event"] != "new_follower" {
		t.Error("Clone shares node data")
	}
}
