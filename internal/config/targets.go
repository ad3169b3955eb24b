package config

import (
	"fmt"
	"os"

	"github.com/chinjsg/csv-extractor/internal/domain"
	"gopkg.in/yaml.v3"
)

// LoadTargets returns the target jurisdictions. With an empty path the
// built-in set is used; otherwise path is read as YAML of the form
//
//	US:
//	  Arizona: [Pima]
//	Singapore: {}
func LoadTargets(path string) (domain.Targets, error) {
	if path == "" {
		return domain.DefaultTargets(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Targets{}, fmt.Errorf("read targets file: %w", err)
	}

	var spec domain.TargetSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return domain.Targets{}, fmt.Errorf("parse targets file: %w", err)
	}
	if len(spec) == 0 {
		return domain.Targets{}, fmt.Errorf("targets file %s defines no countries", path)
	}
	return domain.NewTargets(spec), nil
}
