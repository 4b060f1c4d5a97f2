// Package config defines the format-agnostic configuration model: node type
// definitions read from manifests, and scenes, which are ordered command
// streams read from scene files.
//
// Concrete loaders live in separate packages: internal/hcl reads HCL, and
// internal/scenefile dispatches between HCL, YAML and JSONC.
package config
