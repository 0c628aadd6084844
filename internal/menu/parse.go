package menu

import (
	"encoding/json"
	"fmt"
)

// ParseError describes a problem with a tree document.
type ParseError struct {
	Path    string
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("menu: %s: %s", e.Path, e.Message)
}

// ParseTree decodes and validates a JSON tree document. The engine assumes
// well-formed nodes, so all shape checks happen here, before a document is
// ever accepted into the config store.
func ParseTree(data []byte) (*Tree, error) {
	var tree Tree
	if err := json.Unmarshal(data, &tree); err != nil {
		return nil, &ParseError{Path: "$", Message: "invalid JSON: " + err.Error()}
	}
	if err := validateTree(&tree); err != nil {
		return nil, err
	}
	return &tree, nil
}

// Document serializes a tree back to its JSON document form.
func Document(t *Tree) ([]byte, error) {
	return json.MarshalIndent(t, "", "  ")
}

func validateTree(t *Tree) error {
	if t.Codes == nil {
		return &ParseError{Path: "codes", Message: "missing codes object"}
	}
	for code, root := range t.Codes {
		if code == "" {
			return &ParseError{Path: "codes", Message: "empty dial code"}
		}
		if err := validateNode("codes."+code, root); err != nil {
			return err
		}
	}
	return nil
}

func validateNode(path string, n *Node) error {
	if n == nil {
		return &ParseError{Path: path, Message: "null node"}
	}
	if n.Response == "" && n.Goto == "" {
		return &ParseError{Path: path, Message: "node needs a response or a goto"}
	}
	if n.CDPEvent != nil && n.CDPEvent.EventID == "" {
		return &ParseError{Path: path + ".cdpEvent", Message: "eventId is required"}
	}
	for key, child := range n.Options {
		if key == "" {
			return &ParseError{Path: path + ".options", Message: "empty option key"}
		}
		if err := validateNode(path+".options."+key, child); err != nil {
			return err
		}
	}
	return nil
}
