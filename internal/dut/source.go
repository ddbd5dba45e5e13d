package dut

import "path/filepath"

// SourceKind tells where a definition came from.
type SourceKind uint8

const (
	// SourceFile marks definitions loaded from a definition file.
	SourceFile SourceKind = iota + 1
	// SourceCommandLine marks definitions built from command-line arguments.
	SourceCommandLine
)

func (k SourceKind) String() string {
	switch k {
	case SourceFile:
		return "file"
	case SourceCommandLine:
		return "command line"
	default:
		return "unknown"
	}
}

// Source records the provenance of a Definition.
type Source struct {
	kind SourceKind
	path string
}

// FileSource returns the source for a definition read from path.
func FileSource(path string) Source {
	return Source{kind: SourceFile, path: path}
}

// CommandLineSource returns the source for a definition built from CLI arguments.
func CommandLineSource() Source {
	return Source{kind: SourceCommandLine}
}

// Kind returns the source variant.
func (s Source) Kind() SourceKind { return s.kind }

// Path returns the definition file path for file sources.
func (s Source) Path() (string, bool) {
	if s.kind != SourceFile {
		return "", false
	}
	return s.path, true
}

func (s Source) String() string {
	if s.kind == SourceFile {
		return s.path
	}
	return s.kind.String()
}

// baseDir is the directory relative paths in the definition are resolved
// against: the definition file's directory, or the working directory.
func (s Source) baseDir() string {
	if s.kind == SourceFile {
		return filepath.Dir(s.path)
	}
	return "."
}
