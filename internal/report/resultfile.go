// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"fmt"
	"os"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/genescout/internal/analyze"
	"github.com/pdiddy/genescout/pkg/types"
)

// ResultFile is the on-disk representation of one finished run: the full
// aggregate plus the derived assessment. The researcher can save a run to
// a file and reload it later without re-querying APIs.
type ResultFile struct {
	Result     types.AggregateResult `yaml:"result"`
	Assessment analyze.Assessment    `yaml:"assessment"`
}

// WriteResultFile saves the run and its assessment to a YAML file.
func WriteResultFile(path string, res *types.AggregateResult) error {
	rf := ResultFile{
		Result:     *res,
		Assessment: analyze.Assess(res),
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing result file %s: %w", path, err)
	}
	return nil
}

// ReadResultFile loads a previously saved run.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file %s: %w", path, err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file %s: %w", path, err)
	}
	return &rf, nil
}
