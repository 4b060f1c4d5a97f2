// Package scenefile loads scenes, ordered command streams, from HCL, YAML or
// JSON-with-comments files. The format is chosen by file extension.
//
// YAML and JSONC scenes share one document shape:
//
//	commands:
//	  - variant: update
//	    path: root.axis1
//	    type: axis
//	    state: {bounds: [0, 10]}
//	  - variant: delete
//	    path: root.axis1
package scenefile
