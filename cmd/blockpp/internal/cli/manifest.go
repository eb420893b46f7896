package cli

import (
	"os"

	"gopkg.in/yaml.v3"

	"github.com/blockpp/blockpp/pperrors"
)

// manifest is the optional --manifest YAML document (§10.2/§10.3): it lets a
// caller declare named files, search roots and predefined macros once
// instead of spelling every -D/-I on the command line. Every field is
// merged with, and can be overridden by, the equivalent command-line flags.
type manifest struct {
	SearchRoots []string          `yaml:"search_roots"`
	Defines     map[string]string `yaml:"defines"`
	Files       map[string]string `yaml:"files"`
}

func loadManifest(path string) (*manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, pperrors.Wrap(pperrors.IOFailure, err, "reading manifest "+path)
	}
	var m manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, pperrors.Wrap(pperrors.UserError, err, "parsing manifest "+path)
	}
	return &m, nil
}
