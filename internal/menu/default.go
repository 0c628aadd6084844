package menu

import "encoding/json"

// DefaultTree returns the built-in demo tree used when no document has been
// saved yet, and restored by a config reset. It exercises every node feature:
// literal options, wildcard capture, goto-to-root, CDP events, terminal nodes.
func DefaultTree() *Tree {
	return &Tree{
		NetworkName: "SimTel",
		Codes: map[string]*Node{
			"*100#": {
				Response: "Welcome to SimTel\n1. Balance\n2. Buy data bundle\n0. Exit",
				CDPEvent: &CDPEvent{
					EventID:    "ussd_menu_opened",
					Properties: map[string]any{"menu": "main"},
				},
				Options: map[string]*Node{
					"1": {
						Response: "Your balance is $12.50\n0. Back",
						Options: map[string]*Node{
							"0": {Goto: "*100#"},
						},
					},
					"2": {
						Response: "Enter bundle size in MB:",
						IsInput:  true,
						Options: map[string]*Node{
							Wildcard: {
								Response: "Confirm purchase?\n1. Yes\n0. Back",
								Options: map[string]*Node{
									"1": {
										Response:   "Bundle purchased. Thank you!",
										SessionEnd: true,
										CDPEvent: &CDPEvent{
											EventID: "bundle_purchased",
											Properties: map[string]any{
												"sizeMb": PlaceholderInput,
											},
										},
									},
									"0": {Goto: "*100#"},
								},
							},
						},
					},
					"0": {
						Response:   "Goodbye.",
						SessionEnd: true,
					},
				},
			},
			"*123#": {
				Response:   "Your number is 0700 000 000",
				SessionEnd: true,
			},
		},
	}
}

// DefaultDocument returns the default tree as a JSON document, used to seed
// an empty config store.
func DefaultDocument() []byte {
	data, err := json.MarshalIndent(DefaultTree(), "", "  ")
	if err != nil {
		// The default tree is a static literal; this cannot fail.
		panic(err)
	}
	return data
}
