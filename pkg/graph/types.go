package graph

// =============================================================================
// Node Types - Single Source of Truth
// =============================================================================

// NodeType classifies a workflow element. The six known types come from the
// BPMN-style process model; anything else maps to TypeOther.
type NodeType string

const (
	TypeStart    NodeType = "Start"
	TypeEnd      NodeType = "End"
	TypeTask     NodeType = "Task"
	TypeGateway  NodeType = "Gateway"
	TypeDecision NodeType = "Decision"
	TypeEvent    NodeType = "Event"
	TypeOther    NodeType = "Other"
)

// ParseNodeType maps a raw type string to a NodeType.
// Unrecognized strings map to TypeOther rather than failing, since process
// data in the wild frequently carries custom element types.
func ParseNodeType(s string) NodeType {
	switch NodeType(s) {
	case TypeStart, TypeEnd, TypeTask, TypeGateway, TypeDecision, TypeEvent:
		return NodeType(s)
	default:
		return TypeOther
	}
}

// IsSource reports whether nodes of this type seed the layered layout and
// path enumeration (process entry points).
func (t NodeType) IsSource() bool { return t == TypeStart || t == TypeEvent }

// IsSink reports whether nodes of this type terminate path enumeration.
func (t NodeType) IsSink() bool { return t == TypeEnd }

// =============================================================================
// Display Colors
// =============================================================================

// DefaultColor is used for any node type without a dedicated color.
const DefaultColor = "#95a5a6"

var typeColors = map[NodeType]string{
	TypeStart:    "#2ecc71", // green
	TypeEnd:      "#e74c3c", // red
	TypeTask:     "#3498db", // blue
	TypeGateway:  "#f39c12", // orange
	TypeDecision: "#9b59b6", // purple
	TypeEvent:    "#1abc9c", // turquoise
}

// Color returns the display color for a node type.
// The rendering collaborator uses this as the fill color; unknown types get
// DefaultColor (gray).
func Color(t NodeType) string {
	if c, ok := typeColors[t]; ok {
		return c
	}
	return DefaultColor
}

// =============================================================================
// Node and Edge
// =============================================================================

// Node is a single workflow element. Nodes are immutable once constructed;
// the Graph hands out value copies, never pointers into its own state.
type Node struct {
	ID   string   `json:"id"`
	Name string   `json:"name"`
	Type NodeType `json:"type"`
}

// Edge is a directed connection between two workflow elements.
// Multiple edges between the same ordered pair are allowed (distinct labels),
// as are self-loops; self-loops are excluded from simple-path enumeration.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Label  string `json:"label,omitempty"`
}
