package hcl

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/vk/aether/internal/config"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/fsutil"
)

// Loader is the HCL-specific implementation of the config.Loader interface.
type Loader struct{}

// NewLoader creates a new HCL configuration loader.
func NewLoader() *Loader {
	return &Loader{}
}

var _ config.Loader = (*Loader)(nil)

// Load parses every .hcl file found under the given paths and merges them
// into one model. Files are read in path order, then sorted within each
// directory.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("HCL loader started.", "path_count", len(paths))

	files, err := fsutil.FindAll(paths, ".hcl")
	if err != nil {
		return nil, err
	}
	logger.Debug("Discovered HCL files.", "count", len(files))

	parser := hclparse.NewParser()
	model := config.NewModel()
	for _, name := range files {
		file, diags := parser.ParseHCLFile(name)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse HCL file %s: %w", name, diags)
		}
		m, err := l.translateFile(ctx, file)
		if err != nil {
			return nil, fmt.Errorf("failed to decode HCL file %s: %w", name, err)
		}
		if err := model.Merge(m); err != nil {
			return nil, err
		}
	}

	logger.Debug("HCL loading complete.", "types", len(model.Types), "commands", len(model.Scene))
	return model, nil
}

// Parse decodes a single in-memory HCL document, as embedded by modules.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	file, diags := hclparse.NewParser().ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL %s: %w", filename, diags)
	}
	return l.translateFile(ctx, file)
}

func (l *Loader) translateFile(ctx context.Context, file *hcl.File) (*config.Model, error) {
	root, err := decodeFile(file)
	if err != nil {
		return nil, err
	}

	model := config.NewModel()
	for _, b := range root.Nodes {
		def, err := l.translateNode(ctx, b)
		if err != nil {
			return nil, err
		}
		if prev, dup := model.Types[def.Name]; dup {
			return nil, fmt.Errorf("node type %q defined twice (%s and %s)", def.Name, prev.Source, def.Source)
		}
		model.Types[def.Name] = def
	}
	for _, b := range root.Commands {
		c, err := l.translateCommand(b)
		if err != nil {
			return nil, err
		}
		model.Scene = append(model.Scene, c)
	}
	return model, nil
}

func gohclDecode(body hcl.Body, target any) hcl.Diagnostics {
	return gohcl.DecodeBody(body, evalContext(), target)
}
