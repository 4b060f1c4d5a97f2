// Package hcl provides the HCL implementation of config.Loader.
//
// One file may mix two kinds of top-level blocks:
//
//	node "axis" {
//	  kind     = "composite"
//	  children = ["line"]
//	  behavior = "Axis"
//	  state "bounds" { type = list(number) }
//	}
//
//	command "update" "root.axis1" {
//	  type  = "axis"
//	  state = { bounds = [0, 10] }
//	}
//
// Node blocks become type definitions; command blocks become the scene, in
// file order. Command state and state defaults may call a small set of
// go-cty standard library functions (concat, range, upper, jsondecode...).
package hcl
