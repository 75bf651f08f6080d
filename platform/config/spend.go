package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// sourceSpendFile is the on-disk ledger of marketing spend per acquisition
// source, used for the ROI columns of the source attribution report:
//
//	sources:
//	  - id: 6f1c...        # open house / listing id
//	    spendCents: 120000
type sourceSpendFile struct {
	Sources []struct {
		ID         string `yaml:"id"`
		SpendCents int64  `yaml:"spendCents"`
	} `yaml:"sources"`
}

// LoadSourceSpend reads the spend ledger. An empty path yields an empty map.
// Duplicate ids are summed.
func LoadSourceSpend(path string) (map[uuid.UUID]int64, error) {
	spend := make(map[uuid.UUID]int64)
	if strings.TrimSpace(path) == "" {
		return spend, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read source spend file: %w", err)
	}
	return ParseSourceSpend(data)
}

// ParseSourceSpend decodes a YAML spend ledger.
func ParseSourceSpend(data []byte) (map[uuid.UUID]int64, error) {
	var file sourceSpendFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse source spend file: %w", err)
	}

	spend := make(map[uuid.UUID]int64, len(file.Sources))
	for i, entry := range file.Sources {
		id, err := uuid.Parse(strings.TrimSpace(entry.ID))
		if err != nil {
			return nil, fmt.Errorf("source spend entry %d: invalid id %q", i, entry.ID)
		}
		if entry.SpendCents < 0 {
			return nil, fmt.Errorf("source spend entry %d: negative spend", i)
		}
		spend[id] += entry.SpendCents
	}
	return spend, nil
}
