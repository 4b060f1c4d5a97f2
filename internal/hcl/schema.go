package hcl

import "github.com/hashicorp/hcl/v2"

// fileRoot is a struct used to decode all possible top-level blocks from any file.
type fileRoot struct {
	Nodes    []*nodeBlock    `hcl:"node,block"`
	Commands []*commandBlock `hcl:"command,block"`
	Remain   hcl.Body        `hcl:",remain"`
}

type nodeBlock struct {
	Name        string        `hcl:"name,label"`
	Kind        string        `hcl:"kind,optional"`
	Description string        `hcl:"description,optional"`
	Children    []string      `hcl:"children,optional"`
	Behavior    string        `hcl:"behavior,optional"`
	States      []*stateBlock `hcl:"state,block"`
	DeclRange   hcl.Range     `hcl:",def_range"`
}

type stateBlock struct {
	Name        string         `hcl:"name,label"`
	Type        hcl.Expression `hcl:"type,optional"`
	Description string         `hcl:"description,optional"`
	Default     hcl.Expression `hcl:"default,optional"`
	Optional    *bool          `hcl:"optional,optional"`
	DeclRange   hcl.Range      `hcl:",def_range"`
}

type commandBlock struct {
	Variant   string         `hcl:"variant,label"`
	Path      string         `hcl:"path,label"`
	Type      string         `hcl:"type,optional"`
	State     hcl.Expression `hcl:"state,optional"`
	DeclRange hcl.Range      `hcl:",def_range"`
}
