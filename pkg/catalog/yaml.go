package catalog

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Sam-lateef/Ascendia-booking-sub000/pkg/domain"
)

// YAMLDirSource loads one domain per YAML file from a directory. The file
// stem becomes the domain ID when the document does not set one.
type YAMLDirSource struct {
	dir string
}

// NewYAMLDirSource creates a source over the given directory.
func NewYAMLDirSource(dir string) *YAMLDirSource {
	return &YAMLDirSource{dir: dir}
}

// Load parses every .yaml/.yml file in the directory. Unknown keys are
// rejected; a typo'd field in domain config must never silently vanish.
func (s *YAMLDirSource) Load(ctx context.Context) ([]*domain.Domain, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read domain directory %s: %w", s.dir, err)
	}

	var domains []*domain.Domain
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		d, err := loadDomainFile(path)
		if err != nil {
			return nil, err
		}
		if d.ID == "" {
			d.ID = strings.TrimSuffix(entry.Name(), ext)
		}
		domains = append(domains, d)
	}

	sort.Slice(domains, func(i, j int) bool { return domains[i].ID < domains[j].ID })
	return domains, nil
}

func loadDomainFile(path string) (*domain.Domain, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var d domain.Domain
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&d); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return &d, nil
}
