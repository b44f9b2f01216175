package profiles

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// specFile represents the structure of the profiles configuration file.
type specFile struct {
	Profiles []Spec `json:"profiles" yaml:"profiles"`
}

// LoadSpecs reads profile specs from a YAML or JSON file. Environment
// variables in the file are expanded before decoding.
func LoadSpecs(path string) ([]Spec, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("profiles file path is empty")
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profiles file: %w", err)
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		return nil, fmt.Errorf("read profiles file: %w", err)
	}

	expanded := []byte(os.ExpandEnv(string(raw)))

	parsed, err := parseSpecFile(expanded, filepath.Ext(path))
	if err != nil {
		return nil, err
	}
	if len(parsed.Profiles) == 0 {
		return nil, errors.New("profiles file contains no profiles entries")
	}

	seen := make(map[string]struct{}, len(parsed.Profiles))
	specs := make([]Spec, 0, len(parsed.Profiles))
	for i, spec := range parsed.Profiles {
		spec = sanitizeSpec(spec)
		if spec.ID == "" {
			return nil, fmt.Errorf("profiles[%d]: %w: id is required", i, ErrInvalidSpec)
		}
		if _, dup := seen[spec.ID]; dup {
			return nil, fmt.Errorf("duplicate profile id %q", spec.ID)
		}
		seen[spec.ID] = struct{}{}
		specs = append(specs, spec)
	}
	return specs, nil
}

// parseSpecFile decodes by extension, trying every format when the
// extension is unknown.
func parseSpecFile(data []byte, ext string) (specFile, error) {
	ext = strings.ToLower(strings.TrimSpace(ext))
	decoders := []struct {
		name string
		ext  string
		fn   func([]byte, any) error
	}{
		{name: "yaml", ext: ".yaml", fn: yaml.Unmarshal},
		{name: "yaml", ext: ".yml", fn: yaml.Unmarshal},
		{name: "json", ext: ".json", fn: json.Unmarshal},
	}

	known := false
	for _, d := range decoders {
		if ext == d.ext {
			known = true
		}
	}

	var lastErr error
	for _, d := range decoders {
		if known && ext != d.ext {
			continue
		}
		var out specFile
		if err := d.fn(data, &out); err != nil {
			lastErr = fmt.Errorf("decode %s profiles: %w", d.name, err)
			continue
		}
		return out, nil
	}
	if lastErr != nil {
		return specFile{}, lastErr
	}
	return specFile{}, errors.New("profiles file format not recognized (expected YAML or JSON)")
}
