package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTreeRoot(t *testing.T) {
	tree := &Tree{Codes: map[string]*Node{
		"*100#": {Response: "hello"},
	}}

	n, ok := tree.Root("*100#")
	require.True(t, ok)
	assert.Equal(t, "hello", n.Response)

	_, ok = tree.Root("*999#")
	assert.False(t, ok)
}

func TestTreeRootNil(t *testing.T) {
	var tree *Tree
	_, ok := tree.Root("*100#")
	assert.False(t, ok)
}

func TestNodeNext_LiteralBeforeWildcard(t *testing.T) {
	a := &Node{Response: "a"}
	b := &Node{Response: "b"}
	n := &Node{Response: "menu", Options: map[string]*Node{
		"1":      a,
		Wildcard: b,
	}}

	got, wild := n.Next("1")
	assert.Same(t, a, got)
	assert.False(t, wild)

	got, wild = n.Next("9")
	assert.Same(t, b, got)
	assert.True(t, wild)
}

func TestNodeNext_NoMatch(t *testing.T) {
	n := &Node{Response: "menu", Options: map[string]*Node{
		"1": {Response: "a"},
	}}

	got, wild := n.Next("2")
	assert.Nil(t, got)
	assert.False(t, wild)
}

func TestNodeNext_NoOptions(t *testing.T) {
	n := &Node{Response: "leaf"}
	got, _ := n.Next("1")
	assert.Nil(t, got)
}

func TestParseTree_Valid(t *testing.T) {
	doc := `{
		"networkName": "TestNet",
		"codes": {
			"*100#": {
				"response": "Menu\n1. Balance",
				"options": {
					"1": {"response": "Balance: 0", "sessionEnd": true},
					"*": {"response": "Captured", "cdpEvent": {"eventId": "e1", "properties": {"v": "$input"}}}
				}
			}
		}
	}`

	tree, err := ParseTree([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "TestNet", tree.NetworkName)

	root, ok := tree.Root("*100#")
	require.True(t, ok)
	assert.Len(t, root.Options, 2)
	assert.True(t, root.Options["1"].SessionEnd)
	assert.Equal(t, "e1", root.Options[Wildcard].CDPEvent.EventID)
}

func TestParseTree_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"bad json", `{`},
		{"missing codes", `{"networkName": "x"}`},
		{"empty dial code", `{"codes": {"": {"response": "x"}}}`},
		{"null node", `{"codes": {"*1#": null}}`},
		{"no response no goto", `{"codes": {"*1#": {"options": {}}}}`},
		{"cdp without eventId", `{"codes": {"*1#": {"response": "x", "cdpEvent": {"properties": {}}}}}`},
		{"empty option key", `{"codes": {"*1#": {"response": "x", "options": {"": {"response": "y"}}}}}`},
		{"invalid nested node", `{"codes": {"*1#": {"response": "x", "options": {"1": {"options": {}}}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTree([]byte(tt.doc))
			assert.Error(t, err)
		})
	}
}

func TestParseTree_GotoOnlyNode(t *testing.T) {
	doc := `{"codes": {"*1#": {"response": "x", "options": {"0": {"goto": "*1#"}}}}}`
	_, err := ParseTree([]byte(doc))
	assert.NoError(t, err)
}

func TestDefaultDocumentRoundTrips(t *testing.T) {
	tree, err := ParseTree(DefaultDocument())
	require.NoError(t, err)
	assert.Equal(t, "SimTel", tree.NetworkName)

	_, ok := tree.Root("*100#")
	assert.True(t, ok)
}

func TestDocument(t *testing.T) {
	data, err := Document(DefaultTree())
	require.NoError(t, err)

	tree, err := ParseTree(data)
	require.NoError(t, err)
	assert.Equal(t, DefaultTree().NetworkName, tree.NetworkName)
}
