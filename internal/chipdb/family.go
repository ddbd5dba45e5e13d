package chipdb

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"
)

// Family is a decoded and validated target family.
type Family struct {
	Name         string    `msgpack:"name"`
	Manufacturer string    `msgpack:"manufacturer"`
	Origin       string    `msgpack:"origin"`
	Targets      []*Target `msgpack:"targets"`
}

type familyFile struct {
	Name            string           `yaml:"name"`
	Manufacturer    string           `yaml:"manufacturer"`
	Variants        []variantFile    `yaml:"variants"`
	FlashAlgorithms []FlashAlgorithm `yaml:"flash_algorithms"`
}

type variantFile struct {
	Name            string         `yaml:"name"`
	Cores           []Core         `yaml:"cores"`
	MemoryMap       []MemoryRegion `yaml:"memory_map"`
	FlashAlgorithms []string       `yaml:"flash_algorithms"`
}

// ParseFamily decodes one YAML family document and validates it. origin is
// recorded on every resulting Target.
func ParseFamily(data []byte, origin string) (*Family, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var raw familyFile
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%s: empty target family", origin)
		}
		return nil, fmt.Errorf("%s: failed to parse YAML: %w", origin, err)
	}
	fam, err := raw.build(origin)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}
	return fam, nil
}

func (f *familyFile) build(origin string) (*Family, error) {
	name := strings.TrimSpace(f.Name)
	if name == "" {
		return nil, errors.New("family must have a name")
	}
	if len(f.Variants) == 0 {
		return nil, fmt.Errorf("family %q has no variants", name)
	}

	algos := make(map[string]FlashAlgorithm, len(f.FlashAlgorithms))
	for _, a := range f.FlashAlgorithms {
		if strings.TrimSpace(a.Name) == "" {
			return nil, fmt.Errorf("family %q: flash algorithm without a name", name)
		}
		if _, dup := algos[a.Name]; dup {
			return nil, fmt.Errorf("family %q: duplicate flash algorithm %q", name, a.Name)
		}
		algos[a.Name] = a
	}

	fam := &Family{
		Name:         name,
		Manufacturer: strings.TrimSpace(f.Manufacturer),
		Origin:       origin,
		Targets:      make([]*Target, 0, len(f.Variants)),
	}
	for _, v := range f.Variants {
		t, err := v.build(fam, algos)
		if err != nil {
			return nil, fmt.Errorf("family %q: %w", name, err)
		}
		fam.Targets = append(fam.Targets, t)
	}
	return fam, nil
}

func (v *variantFile) build(fam *Family, algos map[string]FlashAlgorithm) (*Target, error) {
	t := &Target{
		Name:         strings.TrimSpace(v.Name),
		Family:       fam.Name,
		Manufacturer: fam.Manufacturer,
		Cores:        append([]Core(nil), v.Cores...),
		MemoryMap:    append([]MemoryRegion(nil), v.MemoryMap...),
		Origin:       fam.Origin,
	}
	for _, ref := range v.FlashAlgorithms {
		a, ok := algos[ref]
		if !ok {
			return nil, fmt.Errorf("variant %q references undefined flash algorithm %q", t.Name, ref)
		}
		t.FlashAlgorithms = append(t.FlashAlgorithms, a)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// validate checks the invariants every registered target satisfies, whether
// it was decoded from YAML or from a snapshot.
func (t *Target) validate() error {
	if t.Name == "" {
		return errors.New("variant without a name")
	}
	if len(t.Cores) == 0 {
		return fmt.Errorf("variant %q has no cores", t.Name)
	}
	cores := make(map[string]struct{}, len(t.Cores))
	for _, c := range t.Cores {
		if c.Name == "" || c.Type == "" {
			return fmt.Errorf("variant %q: core needs a name and a type", t.Name)
		}
		cores[c.Name] = struct{}{}
	}
	for _, r := range t.MemoryMap {
		if !r.Kind.valid() {
			return fmt.Errorf("variant %q: region %q has unknown kind %q", t.Name, r.Name, r.Kind)
		}
		if r.End <= r.Start {
			return fmt.Errorf("variant %q: region %q is empty or inverted (0x%x..0x%x)", t.Name, r.Name, r.Start, r.End)
		}
		for _, c := range r.Cores {
			if _, ok := cores[c]; !ok {
				return fmt.Errorf("variant %q: region %q references unknown core %q", t.Name, r.Name, c)
			}
		}
	}
	for _, a := range t.FlashAlgorithms {
		if strings.TrimSpace(a.Name) == "" {
			return fmt.Errorf("variant %q: flash algorithm without a name", t.Name)
		}
	}
	return nil
}

// validate checks a family that did not come through ParseFamily.
func (f *Family) validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("family must have a name")
	}
	if len(f.Targets) == 0 {
		return fmt.Errorf("family %q has no variants", f.Name)
	}
	for i, t := range f.Targets {
		if t == nil {
			return fmt.Errorf("family %q: variant %d is missing", f.Name, i)
		}
		if err := t.validate(); err != nil {
			return fmt.Errorf("family %q: %w", f.Name, err)
		}
	}
	return nil
}
