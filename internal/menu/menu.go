// Package menu models the caller-configurable USSD menu trees walked by the
// session engine. Trees are supplied as JSON documents, validated at load
// time, and treated as immutable once parsed.
package menu

// Wildcard is the option key matching any input not listed literally.
// Inputs matched through it are captured into the session's input buffer.
const Wildcard = "*"

// Placeholder values recognized in CDP event properties. Each resolves to an
// entry of the session's input buffer, counted from the most recent.
const (
	PlaceholderInput      = "$input"
	PlaceholderInputPrev  = "$input_prev"
	PlaceholderInputPrev2 = "$input_prev2"
)

// Node is a single menu screen. Options map literal inputs (or Wildcard) to
// child nodes. A node with SessionEnd set ends the session on arrival; a node
// with Goto set is replaced by the root node of that dial code on arrival.
type Node struct {
	Response   string           `json:"response"`
	Options    map[string]*Node `json:"options,omitempty"`
	IsInput    bool             `json:"isInput,omitempty"`
	CDPEvent   *CDPEvent        `json:"cdpEvent,omitempty"`
	SessionEnd bool             `json:"sessionEnd,omitempty"`
	Goto       string           `json:"goto,omitempty"`
}

// CDPEvent describes an analytics event fired on arrival at a node.
// Property values may be placeholders resolved against the input buffer.
type CDPEvent struct {
	EventID    string         `json:"eventId"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Tree maps dial codes (e.g. "*100#") to their root nodes.
type Tree struct {
	NetworkName string           `json:"networkName,omitempty"`
	Codes       map[string]*Node `json:"codes"`
}

// Root returns the root node for a dial code. Unknown codes are a normal
// outcome, reported through the bool.
func (t *Tree) Root(code string) (*Node, bool) {
	if t == nil {
		return nil, false
	}
	n, ok := t.Codes[code]
	return n, ok
}

// Next resolves one step from this node: exact match first, then wildcard.
// The second return reports whether the wildcard matched, which is what
// decides input-buffer capture.
func (n *Node) Next(input string) (*Node, bool) {
	if n == nil || n.Options == nil {
		return nil, false
	}
	if child, ok := n.Options[input]; ok {
		return child, false
	}
	if child, ok := n.Options[Wildcard]; ok {
		return child, true
	}
	return nil, false
}
