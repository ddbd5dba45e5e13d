package chipdb

import (
	"fmt"

	"fortio.org/safecast"
)

// RegionKind classifies a memory region.
type RegionKind string

const (
	// RegionRAM is volatile memory usable for flash loaders and stacks.
	RegionRAM RegionKind = "ram"
	// RegionNVM is non-volatile memory programmed by a flash algorithm.
	RegionNVM RegionKind = "nvm"
	// RegionGeneric is memory-mapped space with no flashing semantics.
	RegionGeneric RegionKind = "generic"
)

func (k RegionKind) valid() bool {
	switch k {
	case RegionRAM, RegionNVM, RegionGeneric:
		return true
	default:
		return false
	}
}

// Core is one processor core of a chip.
type Core struct {
	Name string `yaml:"name" msgpack:"name"`
	Type string `yaml:"type" msgpack:"type"`
}

// MemoryRegion is a half-open address range [Start, End).
type MemoryRegion struct {
	Kind  RegionKind `yaml:"kind" msgpack:"kind"`
	Name  string     `yaml:"name" msgpack:"name"`
	Start uint64     `yaml:"start" msgpack:"start"`
	End   uint64     `yaml:"end" msgpack:"end"`
	Boot  bool       `yaml:"boot,omitempty" msgpack:"boot"`
	Cores []string   `yaml:"cores,omitempty" msgpack:"cores"`
}

// Size returns the region length. Targets are 32-bit; a region that does not
// fit in the 32-bit address space is reported as an error.
func (r MemoryRegion) Size() (uint32, error) {
	if r.End < r.Start {
		return 0, fmt.Errorf("region %s: end 0x%x before start 0x%x", r.Name, r.End, r.Start)
	}
	size, err := safecast.Conv[uint32](r.End - r.Start)
	if err != nil {
		return 0, fmt.Errorf("region %s: %w", r.Name, err)
	}
	return size, nil
}

// Contains reports whether addr falls inside the region.
func (r MemoryRegion) Contains(addr uint64) bool {
	return addr >= r.Start && addr < r.End
}

// FlashAlgorithm describes a flash loader available for a chip.
type FlashAlgorithm struct {
	Name        string `yaml:"name" msgpack:"name"`
	Description string `yaml:"description,omitempty" msgpack:"description"`
	Default     bool   `yaml:"default,omitempty" msgpack:"default"`
	LoadAddress uint64 `yaml:"load_address" msgpack:"load_address"`
	FlashStart  uint64 `yaml:"flash_start,omitempty" msgpack:"flash_start"`
	FlashSize   uint64 `yaml:"flash_size,omitempty" msgpack:"flash_size"`
	PageSize    uint32 `yaml:"page_size,omitempty" msgpack:"page_size"`
}

// Target is the full descriptor of one chip variant.
type Target struct {
	Name            string           `msgpack:"name"`
	Family          string           `msgpack:"family"`
	Manufacturer    string           `msgpack:"manufacturer"`
	Cores           []Core           `msgpack:"cores"`
	MemoryMap       []MemoryRegion   `msgpack:"memory_map"`
	FlashAlgorithms []FlashAlgorithm `msgpack:"flash_algorithms"`
	// Origin names the file (or "builtin:<file>") the family was loaded from.
	Origin string `msgpack:"origin"`
}

// BootMemory returns the first region flagged as boot memory.
func (t *Target) BootMemory() (MemoryRegion, bool) {
	for _, r := range t.MemoryMap {
		if r.Boot {
			return r, true
		}
	}
	return MemoryRegion{}, false
}

// DefaultFlashAlgorithm returns the algorithm marked default, or the first one.
func (t *Target) DefaultFlashAlgorithm() (FlashAlgorithm, bool) {
	for _, a := range t.FlashAlgorithms {
		if a.Default {
			return a, true
		}
	}
	if len(t.FlashAlgorithms) > 0 {
		return t.FlashAlgorithms[0], true
	}
	return FlashAlgorithm{}, false
}

func (t *Target) String() string {
	return t.Name
}

func (t *Target) clone() *Target {
	out := *t
	out.Cores = append([]Core(nil), t.Cores...)
	out.MemoryMap = make([]MemoryRegion, len(t.MemoryMap))
	for i, r := range t.MemoryMap {
		r.Cores = append([]string(nil), r.Cores...)
		out.MemoryMap[i] = r
	}
	out.FlashAlgorithms = append([]FlashAlgorithm(nil), t.FlashAlgorithms...)
	return &out
}
