package scenefile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
	"github.com/vk/aether/internal/config"
	"github.com/vk/aether/internal/ctxlog"
	"github.com/vk/aether/internal/fsutil"
	"github.com/vk/aether/internal/hcl"
	"github.com/vk/aether/internal/schema"
	"gopkg.in/yaml.v3"
)

// Extensions lists the file extensions Load picks up when walking a directory.
var Extensions = []string{".hcl", ".yaml", ".yml", ".json", ".jsonc"}

// document is the YAML/JSONC scene shape.
type document struct {
	Commands []entry `yaml:"commands" json:"commands"`
}

type entry struct {
	Variant string `yaml:"variant" json:"variant"`
	Path    string `yaml:"path" json:"path"`
	Type    string `yaml:"type,omitempty" json:"type,omitempty"`
	State   any    `yaml:"state,omitempty" json:"state,omitempty"`
}

// Loader reads scenes in every supported format.
type Loader struct {
	hcl *hcl.Loader
}

// NewLoader creates a scene loader.
func NewLoader() *Loader {
	return &Loader{hcl: hcl.NewLoader()}
}

var _ config.Loader = (*Loader)(nil)

// Load reads every scene file under paths. HCL files may also carry node
// type definitions; they are merged into the returned model.
func (l *Loader) Load(ctx context.Context, paths ...string) (*config.Model, error) {
	logger := ctxlog.FromContext(ctx)

	files, err := fsutil.FindAll(paths, Extensions...)
	if err != nil {
		return nil, err
	}

	model := config.NewModel()
	for _, name := range files {
		src, err := os.ReadFile(name)
		if err != nil {
			return nil, err
		}
		m, err := l.Parse(ctx, name, src)
		if err != nil {
			return nil, err
		}
		if err := model.Merge(m); err != nil {
			return nil, err
		}
		logger.Debug("Loaded scene file.", "file", name, "commands", len(m.Scene))
	}
	return model, nil
}

// Parse decodes one scene document. The format is chosen from filename's
// extension.
func (l *Loader) Parse(ctx context.Context, filename string, src []byte) (*config.Model, error) {
	var (
		doc document
		err error
	)
	switch ext := filepath.Ext(filename); ext {
	case ".hcl":
		return l.hcl.Parse(ctx, filename, src)
	case ".yaml", ".yml":
		err = decodeYAML(src, &doc)
	case ".json", ".jsonc":
		err = decodeJSONC(src, &doc)
	default:
		return nil, fmt.Errorf("%s: unsupported scene format %q", filename, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return translate(filename, doc)
}

func decodeYAML(src []byte, doc *document) error {
	dec := yaml.NewDecoder(bytes.NewReader(src))
	dec.KnownFields(true)
	if err := dec.Decode(doc); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func decodeJSONC(src []byte, doc *document) error {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(src)))
	dec.DisallowUnknownFields()
	return dec.Decode(doc)
}

func translate(filename string, doc document) (*config.Model, error) {
	model := config.NewModel()
	for i, e := range doc.Commands {
		state, err := schema.FromNative(e.State)
		if err != nil {
			return nil, fmt.Errorf("%s: command %d: state: %w", filename, i, err)
		}
		model.Scene = append(model.Scene, &config.Command{
			Variant: e.Variant,
			Path:    e.Path,
			Type:    e.Type,
			State:   state,
			Source:  fmt.Sprintf("%s:commands[%d]", filename, i),
		})
	}
	return model, nil
}
