// Package extprops persists a build's shared property namespace as a YAML
// file so later build steps can read what a task published.
//
// Several tasks of one project may share the file. Save holds an exclusive
// lock on <path>.lock while it reloads the file, applies the keys set
// through this File and writes the result back.
package extprops

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"gopkg.in/yaml.v3"
)

// File is a YAML-backed string map. It satisfies task.Namespace.
type File struct {
	path    string
	props   map[string]string
	changed map[string]string
}

// Open loads path. A missing file yields an empty namespace.
func Open(path string) (*File, error) {
	props, err := load(path)
	if err != nil {
		return nil, err
	}
	return &File{path: path, props: props, changed: map[string]string{}}, nil
}

func load(path string) (map[string]string, error) {
	props := map[string]string{}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return props, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, &props); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if props == nil {
		props = map[string]string{}
	}
	return props, nil
}

// Path returns the backing file path.
func (f *File) Path() string { return f.path }

func (f *File) Set(key, value string) {
	if old, ok := f.props[key]; ok && old == value {
		return
	}
	f.props[key] = value
	f.changed[key] = value
}

func (f *File) Get(key string) (string, bool) {
	v, ok := f.props[key]
	return v, ok
}

// Keys returns all keys in sorted order.
func (f *File) Keys() []string {
	keys := make([]string, 0, len(f.props))
	for k := range f.props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Save merges the keys set since the last Save into the file on disk. Keys
// written meanwhile by other processes are kept. The file is replaced
// atomically.
func (f *File) Save() error {
	if len(f.changed) == 0 {
		return nil
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	unlock, err := lockFile(f.path + ".lock")
	if err != nil {
		return fmt.Errorf("lock %s: %w", f.path, err)
	}
	defer unlock()

	current, err := load(f.path)
	if err != nil {
		return err
	}
	for k, v := range f.changed {
		current[k] = v
	}
	data, err := yaml.Marshal(current)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".extprops-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return err
	}
	f.props = current
	f.changed = map[string]string{}
	return nil
}
