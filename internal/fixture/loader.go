// Package fixture loads static patient records, validates them, and provides
// a lookup registry with atomic snapshot swap.
package fixture

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pitabwire/worklist/model"
)

// Loader scans directories for patient fixture files, parses them, and
// computes SHA-256 checksums. JSON is decoded by the YAML parser.
type Loader struct{}

// NewLoader creates a new fixture Loader.
func NewLoader() *Loader {
	return &Loader{}
}

func isFixtureFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	}
	return false
}

// LoadAll recursively scans directories for *.json, *.yaml and *.yml files
// and parses each into a PatientRecord. Files are visited in lexical order.
func (l *Loader) LoadAll(directories []string) ([]model.PatientRecord, error) {
	var records []model.PatientRecord

	for _, dir := range directories {
		err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if d.IsDir() || !isFixtureFile(path) {
				return nil
			}

			rec, err := l.LoadFile(path)
			if err != nil {
				return fmt.Errorf("loading %s: %w", path, err)
			}
			records = append(records, rec)
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("scanning directory %s: %w", dir, err)
		}
	}

	return records, nil
}

// LoadFile loads and parses a single fixture file. It computes the SHA-256
// checksum and records the source file path.
func (l *Loader) LoadFile(path string) (model.PatientRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return model.PatientRecord{}, fmt.Errorf("reading %s: %w", path, err)
	}

	var rec model.PatientRecord
	if err := yaml.Unmarshal(data, &rec); err != nil {
		return model.PatientRecord{}, fmt.Errorf("parsing %s: %w", path, err)
	}

	rec.Checksum = fmt.Sprintf("%x", sha256.Sum256(data))
	rec.SourceFile = path

	return rec, nil
}
