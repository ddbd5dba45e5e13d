package dut

import (
	"os"
	"strings"

	"github.com/BurntSushi/toml"
)

// RawDefinition is the decoded, not yet resolved content of a definition file.
type RawDefinition struct {
	Chip          string `toml:"chip"`
	ProbeSelector string `toml:"probe_selector"`
	// FlashTestBinary is nil when the file does not set the key.
	FlashTestBinary *string `toml:"flash_test_binary"`

	// Unknown lists keys present in the file but not part of the schema.
	Unknown []string `toml:"-"`
}

// ParseFile reads and decodes one definition file.
func ParseFile(path string) (RawDefinition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RawDefinition{}, &IOError{Op: "read", Path: path, Err: err}
	}
	return Parse(data, path)
}

// Parse decodes definition content. path is used for diagnostics only.
func Parse(data []byte, path string) (RawDefinition, error) {
	var raw RawDefinition
	meta, err := toml.Decode(string(data), &raw)
	if err != nil {
		return RawDefinition{}, &SchemaError{Path: path, Err: err}
	}
	for _, field := range []string{"chip", "probe_selector"} {
		if !meta.IsDefined(field) {
			return RawDefinition{}, &SchemaError{Path: path, Field: field, Reason: "missing required field"}
		}
	}
	if err := raw.validate(path); err != nil {
		return RawDefinition{}, err
	}
	for _, key := range meta.Undecoded() {
		raw.Unknown = append(raw.Unknown, key.String())
	}
	return raw, nil
}

// validate trims the string fields in place and rejects blank values.
func (raw *RawDefinition) validate(path string) error {
	raw.Chip = strings.TrimSpace(raw.Chip)
	if raw.Chip == "" {
		return &SchemaError{Path: path, Field: "chip", Reason: "must not be empty"}
	}
	raw.ProbeSelector = strings.TrimSpace(raw.ProbeSelector)
	if raw.ProbeSelector == "" {
		return &SchemaError{Path: path, Field: "probe_selector", Reason: "must not be empty"}
	}
	if raw.FlashTestBinary != nil && strings.TrimSpace(*raw.FlashTestBinary) == "" {
		return &SchemaError{Path: path, Field: "flash_test_binary", Reason: "must not be empty"}
	}
	return nil
}
