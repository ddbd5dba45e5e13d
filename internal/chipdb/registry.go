package chipdb

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

//go:embed targets/*.yaml
var builtinTargets embed.FS

var (
	// ErrUnknownChip is returned by Fetch when no chip has the exact name.
	ErrUnknownChip = errors.New("unknown chip")
	// ErrDuplicateChip is returned when two families declare the same variant.
	ErrDuplicateChip = errors.New("duplicate chip")
)

// Registry is an in-memory chip database. It is not safe for concurrent
// mutation; lookups on a fully loaded registry may run concurrently.
type Registry struct {
	families []*Family
	byName   map[string]*Target
	// order keeps every target in load order, paired with its search key.
	order []searchEntry
}

type searchEntry struct {
	key    string
	target *Target
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*Target)}
}

// Builtin returns a registry holding the embedded target families.
func Builtin() (*Registry, error) {
	r := New()
	entries, err := fs.ReadDir(builtinTargets, "targets")
	if err != nil {
		return nil, fmt.Errorf("failed to read builtin targets: %w", err)
	}
	for _, e := range entries {
		p := path.Join("targets", e.Name())
		data, err := builtinTargets.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read builtin target %s: %w", p, err)
		}
		if err := r.AddFamily(data, "builtin:"+e.Name()); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Open builds a registry from a chip database location:
//   - "" selects the builtin families only;
//   - a directory adds every *.yaml/*.yml family in it to the builtin set;
//   - a *.yaml/*.yml file adds that family to the builtin set;
//   - a *.mp file is read as a snapshot and used on its own.
func Open(location string) (*Registry, error) {
	if location == "" {
		return Builtin()
	}
	info, err := os.Stat(location)
	if err != nil {
		return nil, fmt.Errorf("failed to stat chip database %q: %w", location, err)
	}
	if info.IsDir() {
		r, err := Builtin()
		if err != nil {
			return nil, err
		}
		if err := r.LoadDir(location); err != nil {
			return nil, err
		}
		return r, nil
	}
	switch strings.ToLower(filepath.Ext(location)) {
	case ".mp":
		f, err := os.Open(location)
		if err != nil {
			return nil, fmt.Errorf("failed to open snapshot: %w", err)
		}
		defer f.Close()
		r, err := ReadSnapshot(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", location, err)
		}
		return r, nil
	case ".yaml", ".yml":
		r, err := Builtin()
		if err != nil {
			return nil, err
		}
		if err := r.LoadFile(location); err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported chip database %q (expected directory, .yaml or .mp)", location)
	}
}

// LoadDir adds every YAML family file found directly in dir.
func (r *Registry) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read target directory %s: %w", dir, err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		if err := r.LoadFile(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// LoadFile adds the family described by a single YAML file.
func (r *Registry) LoadFile(file string) error {
	data, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read target family: %w", err)
	}
	return r.AddFamily(data, file)
}

// AddFamily parses a YAML family document and registers its variants.
func (r *Registry) AddFamily(data []byte, origin string) error {
	fam, err := ParseFamily(data, origin)
	if err != nil {
		return err
	}
	return r.add(fam)
}

func (r *Registry) add(fam *Family) error {
	seen := make(map[string]string, len(fam.Targets))
	for _, t := range fam.Targets {
		key := normalize(t.Name)
		if prev, ok := r.byName[key]; ok {
			return fmt.Errorf("%s: %w %q (already defined by %s)", fam.Origin, ErrDuplicateChip, t.Name, prev.Origin)
		}
		if prev, ok := seen[key]; ok {
			return fmt.Errorf("%s: %w %q (clashes with %q in the same family)", fam.Origin, ErrDuplicateChip, t.Name, prev)
		}
		seen[key] = t.Name
	}
	for _, t := range fam.Targets {
		key := normalize(t.Name)
		r.byName[key] = t
		r.order = append(r.order, searchEntry{key: key, target: t})
	}
	r.families = append(r.families, fam)
	return nil
}

// Search returns the names of every chip whose name contains query,
// ignoring case. Names are returned in load order.
func (r *Registry) Search(query string) ([]string, error) {
	q := normalize(query)
	var out []string
	for _, e := range r.order {
		if strings.Contains(e.key, q) {
			out = append(out, e.target.Name)
		}
	}
	return out, nil
}

// Fetch returns a copy of the descriptor of the chip with exactly this name
// (case-insensitive).
func (r *Registry) Fetch(name string) (*Target, error) {
	t, ok := r.byName[normalize(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownChip, name)
	}
	return t.clone(), nil
}

// Families returns the family names in load order.
func (r *Registry) Families() []string {
	out := make([]string, 0, len(r.families))
	for _, f := range r.families {
		out = append(out, f.Name)
	}
	return out
}

// Names returns every chip name, sorted.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.order))
	for _, e := range r.order {
		out = append(out, e.target.Name)
	}
	sort.Strings(out)
	return out
}

// Len reports the number of chips in the registry.
func (r *Registry) Len() int {
	return len(r.order)
}

func normalize(s string) string {
	return strings.ToLower(norm.NFKC.String(strings.TrimSpace(s)))
}
