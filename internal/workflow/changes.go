// Instadash - Instagram Automation Account Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/instadash

package workflow

import (
	"errors"
	"fmt"
)

// ChangeType names one editor operation.
type ChangeType string

const (
	ChangeNodeAdd    ChangeType = "node_add"
	ChangeNodeMove   ChangeType = "node_move"
	ChangeNodeUpdate ChangeType = "node_update"
	ChangeNodeRemove ChangeType = "node_remove"
	ChangeEdgeAdd    ChangeType = "edge_add"
	ChangeEdgeRemove ChangeType = "edge_remove"
)

// ErrInvalidChange is returned for a change missing the fields its type needs.
var ErrInvalidChange = errors.New("invalid change")

// Change is one edit as sent by the flow editor. Which fields are used
// depends on Type:
//
//	node_add     Node
//	node_move    ID, Position
//	node_update  ID, Label and/or Data
//	node_remove  ID
//	edge_add     Edge
//	edge_remove  ID
type Change struct {
	Type     ChangeType     `json:"type" validate:"required,oneof=node_add node_move node_update node_remove edge_add edge_remove"`
	ID       string         `json:"id,omitempty"`
	Node     *Node          `json:"node,omitempty"`
	Edge     *Edge          `json:"edge,omitempty"`
	Position *Position      `json:"position,omitempty"`
	Label    *string        `json:"label,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// Apply runs changes in order. Either every change applies or the original
// graph is returned with the error of the first failing change.
func (g Graph) Apply(changes []Change) (Graph, error) {
	cur := g
	for i, c := range changes {
		next, err := cur.apply(c)
		if err != nil {
			return g, fmt.Errorf("change %d (%s): %w", i, c.Type, err)
		}
		cur = next
	}
	return cur, nil
}

func (g Graph) apply(c Change) (Graph, error) {
	switch c.Type {
	case ChangeNodeAdd:
		if c.Node == nil {
			return g, fmt.Errorf("%w: node required", ErrInvalidChange)
		}
		return g.AddNode(*c.Node)
	case ChangeNodeMove:
		if c.ID == "" || c.Position == nil {
			return g, fmt.Errorf("%w: id and position required", ErrInvalidChange)
		}
		return g.MoveNode(c.ID, *c.Position)
	case ChangeNodeUpdate:
		if c.ID == "" || (c.Label == nil && c.Data == nil) {
			return g, fmt.Errorf("%w: id and label or data required", ErrInvalidChange)
		}
		return g.UpdateNode(c.ID, c.Label, c.Data)
	case ChangeNodeRemove:
		if c.ID == "" {
			return g, fmt.Errorf("%w: id required", ErrInvalidChange)
		}
		return g.RemoveNode(c.ID)
	case ChangeEdgeAdd:
		if c.Edge == nil {
			return g, fmt.Errorf("%w: edge required", ErrInvalidChange)
		}
		return g.Connect(*c.Edge)
	case ChangeEdgeRemove:
		if c.ID == "" {
			return g, fmt.Errorf("%w: id required", ErrInvalidChange)
		}
		return g.Disconnect(c.ID)
	default:
		return g, fmt.Errorf("%w: unknown type %q", ErrInvalidChange, c.Type)
	}
}
