// Package fixture reads and writes marketplace datasets used to seed the in-memory store and
// to bulk-ingest into the graph store.
package fixture

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/vanshika/marketplace/internal/domain"
)

// Dataset is a full snapshot of marketplace data.
type Dataset struct {
	Users      []domain.User          `json:"users"`
	Categories []domain.Category      `json:"categories"`
	Products   []domain.Product       `json:"products"`
	Promotions []domain.Promotion     `json:"promotions"`
	Orders     []domain.Order         `json:"orders"`
	Disputes   []domain.Dispute       `json:"disputes"`
	KYC        []domain.KYCSubmission `json:"kyc"`
	Reviews    []domain.Review        `json:"reviews"`
	Payouts    []domain.Payout        `json:"payouts"`
	Pages      []domain.Page          `json:"pages"`
}

// Load reads a dataset from a .json, .yaml or .yml file.
func Load(path string) (Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Dataset{}, fmt.Errorf("read fixture %s: %w", path, err)
	}
	if isYAML(path) {
		return DecodeYAML(raw)
	}
	var ds Dataset
	if err := json.Unmarshal(raw, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decode fixture %s: %w", path, err)
	}
	return ds, nil
}

// DecodeYAML parses a YAML document using the JSON field names of the domain types.
func DecodeYAML(raw []byte) (Dataset, error) {
	var generic any
	if err := yaml.Unmarshal(raw, &generic); err != nil {
		return Dataset{}, fmt.Errorf("decode yaml fixture: %w", err)
	}
	asJSON, err := json.Marshal(generic)
	if err != nil {
		return Dataset{}, fmt.Errorf("convert yaml fixture: %w", err)
	}
	var ds Dataset
	if err := json.Unmarshal(asJSON, &ds); err != nil {
		return Dataset{}, fmt.Errorf("decode yaml fixture: %w", err)
	}
	return ds, nil
}

// Write serialises the dataset to path, choosing the encoding from the extension.
func Write(ds Dataset, path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}

	asJSON, err := json.MarshalIndent(ds, "", "  ")
	if err != nil {
		return fmt.Errorf("encode fixture: %w", err)
	}
	out := asJSON
	if isYAML(path) {
		var generic any
		if err := json.Unmarshal(asJSON, &generic); err != nil {
			return fmt.Errorf("convert fixture: %w", err)
		}
		if out, err = yaml.Marshal(generic); err != nil {
			return fmt.Errorf("encode yaml fixture: %w", err)
		}
	}

	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("write fixture %s: %w", path, err)
	}
	return nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}
