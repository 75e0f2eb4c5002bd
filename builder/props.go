package builder

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/magiconair/properties"
)

//go:embed properties/*.properties
var resources embed.FS

// ErrResourceNotFound is returned for an unknown property resource name.
var ErrResourceNotFound = errors.New("property resource not found")

// Resources lists the names of the built-in property resources.
func Resources() []string {
	entries, err := fs.ReadDir(resources, "properties")
	if err != nil {
		return nil
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, strings.TrimSuffix(e.Name(), ".properties"))
	}
	sort.Strings(names)
	return names
}

// LoadResource loads the built-in property resource called name, which is
// usually a platform classifier.
func LoadResource(name string) (*properties.Properties, error) {
	data, err := resources.ReadFile(path.Join("properties", name+".properties"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrResourceNotFound, name)
		}
		return nil, err
	}
	l := &properties.Loader{Encoding: properties.ISO_8859_1, DisableExpansion: true}
	return l.LoadBytes(data)
}

// propertyEncoding picks the .properties decoding from the task encoding.
// Anything other than Latin-1 is read as UTF-8.
func propertyEncoding(encoding string) properties.Encoding {
	switch strings.ToUpper(strings.ReplaceAll(encoding, "_", "-")) {
	case "ISO-8859-1", "LATIN1", "LATIN-1":
		return properties.ISO_8859_1
	}
	return properties.UTF8
}

// ResolveProperties builds the property table for opts. Sources are merged
// in a fixed order, later ones overriding earlier ones:
//
//  1. the property resource (opts.PropertyResource, or the detected platform)
//  2. the property file
//  3. the explicit key/value pairs
//
// A detected platform without a built-in resource gets a minimal table,
// logged at warn. An explicitly named resource must exist. The "platform"
// key always ends up set.
func ResolveProperties(opts Options, logger Logger) (*properties.Properties, error) {
	if logger == nil {
		logger = Discard
	}
	name := opts.PropertyResource
	explicit := name != ""
	if !explicit {
		name = Detect()
	}
	table, err := LoadResource(name)
	if err != nil {
		if explicit || !errors.Is(err, ErrResourceNotFound) {
			return nil, err
		}
		logger.Warnf("no built-in properties for platform %q, using defaults", name)
		table = defaultTable(name)
	}

	if opts.PropertyFile != "" {
		data, err := os.ReadFile(opts.PropertyFile)
		if err != nil {
			return nil, err
		}
		l := &properties.Loader{Encoding: propertyEncoding(opts.Encoding), DisableExpansion: true}
		file, err := l.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", opts.PropertyFile, err)
		}
		table.Merge(file)
	}

	keys := make([]string, 0, len(opts.Properties))
	for k := range opts.Properties {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if _, _, err := table.Set(k, opts.Properties[k]); err != nil {
			return nil, err
		}
	}

	if v, ok := table.Get("platform"); !ok || v == "" {
		table.Set("platform", name)
	}
	return table, nil
}

// defaultTable is used for platforms without a built-in resource.
func defaultTable(name string) *properties.Properties {
	table := properties.NewProperties()
	table.DisableExpansion = true
	table.Set("platform", name)
	table.Set("platform.path.separator", string(os.PathListSeparator))
	return table
}
