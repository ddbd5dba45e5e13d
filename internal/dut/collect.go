package dut

import (
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"
)

// Extension is the file extension of definition files.
const Extension = ".toml"

// Collector loads every definition file of a directory.
type Collector struct {
	Resolver *Resolver
	// Jobs > 1 resolves files concurrently. Results and the reported error
	// are the same as for a sequential run.
	Jobs   int
	Logger *slog.Logger
}

// Collect is a shorthand for a sequential Collector using r.
func Collect(dir string, r *Resolver) ([]*Definition, error) {
	c := &Collector{Resolver: r, Logger: r.Logger}
	return c.Collect(dir)
}

func (c *Collector) logger() *slog.Logger {
	if c.Logger != nil {
		return c.Logger
	}
	return slog.Default()
}

// Collect parses and resolves every *.toml file directly inside dir, in
// file name order. Other entries, including subdirectories, are skipped.
// The first invalid definition fails the whole collection.
func (c *Collector) Collect(dir string) ([]*Definition, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &NotADirectoryError{Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &NotADirectoryError{Path: dir}
	}
	files, err := c.candidates(dir)
	if err != nil {
		return nil, err
	}
	c.logger().Debug("collecting definitions", "dir", dir, "files", len(files))

	if c.Jobs > 1 && len(files) > 1 {
		return c.collectParallel(files)
	}
	defs := make([]*Definition, 0, len(files))
	for _, file := range files {
		def, err := c.Resolver.LoadFile(file)
		if err != nil {
			return nil, &DefinitionError{Path: file, Err: err}
		}
		defs = append(defs, def)
	}
	return defs, nil
}

func (c *Collector) candidates(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &IOError{Op: "read directory", Path: dir, Err: err}
	}
	logger := c.logger()
	var files []string
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if e.IsDir() {
			logger.Debug("skipping directory", "path", path)
			continue
		}
		if filepath.Ext(e.Name()) != Extension {
			logger.Debug("skipping file, does not end with "+Extension, "path", path)
			continue
		}
		files = append(files, path)
	}
	return files, nil
}

// collectParallel never cancels outstanding work, so every file before the
// first failing one (in name order) has been tried when the error is chosen.
func (c *Collector) collectParallel(files []string) ([]*Definition, error) {
	defs := make([]*Definition, len(files))
	errs := make([]error, len(files))

	var g errgroup.Group
	g.SetLimit(c.Jobs)
	for i, file := range files {
		g.Go(func() error {
			defs[i], errs[i] = c.Resolver.LoadFile(file)
			return nil
		})
	}
	_ = g.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, &DefinitionError{Path: files[i], Err: err}
		}
	}
	return defs, nil
}
