package registry

import (
	"context"
	"fmt"

	"github.com/vk/aether/internal/config"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/fsutil"
	"github.com/vk/aether/internal/hcl"
)

type manifest struct {
	filename string
	src      []byte
}

// RegisterManifest records a manifest embedded in a module. It is parsed by
// LoadManifests.
func (r *Registry) RegisterManifest(filename string, src []byte) {
	r.manifests = append(r.manifests, manifest{filename: filename, src: src})
}

// LoadManifests parses the embedded manifests, then every .hcl file under
// modulesPath if it is not empty, and populates the registry's definitions.
// Scene commands found in manifests are rejected.
func (r *Registry) LoadManifests(ctx context.Context, modulesPath string) error {
	logger := ctxlog.FromContext(ctx)
	loader := hcl.NewLoader()
	model := config.NewModel()

	for _, m := range r.manifests {
		parsed, err := loader.Parse(ctx, m.filename, m.src)
		if err != nil {
			return err
		}
		if err := model.Merge(parsed); err != nil {
			return err
		}
	}

	if modulesPath != "" {
		files, err := fsutil.FindFiles(modulesPath, ".hcl")
		if err != nil {
			logger.Error("Failed to walk modules directory", "path", modulesPath, "error", err)
			return err
		}
		if len(files) == 0 {
			logger.Warn("No .hcl manifest files found in path", "path", modulesPath)
		}
		parsed, err := loader.Load(ctx, files...)
		if err != nil {
			return err
		}
		if err := model.Merge(parsed); err != nil {
			return err
		}
	}

	if len(model.Scene) > 0 {
		return fmt.Errorf("manifests cannot contain commands (found %d, first at %s)", len(model.Scene), model.Scene[0].Source)
	}

	r.PopulateDefinitionsFromModel(model)
	logger.Info("Registry loaded successfully.", "node_types", len(r.DefinitionRegistry), "behaviors", len(r.BehaviorRegistry))
	return nil
}
