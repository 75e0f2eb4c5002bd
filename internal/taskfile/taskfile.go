// Package taskfile loads build task descriptions from YAML files.
//
// A task file is first rendered as a text/template (with the sprig function
// set), then checked against an embedded JSON schema, then decoded into a
// task.BuildTask on top of the task defaults.
package taskfile

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"text/template"

	"github.com/Masterminds/sprig/v3"
	"github.com/goplus/jcpptask/builder"
	"github.com/goplus/jcpptask/task"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"sigs.k8s.io/yaml"
)

// DefaultName is the task file looked up when none is given.
const DefaultName = "jcpptask.yaml"

//go:embed schema/task.schema.json
var schemaJSON string

const schemaURL = "https://github.com/goplus/jcpptask/task.schema.json"

var (
	schemaOnce     sync.Once
	schemaErr      error
	compiledSchema *jsonschema.Schema
)

func loadSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaJSON)); err != nil {
			schemaErr = err
			return
		}
		compiledSchema, schemaErr = compiler.Compile(schemaURL)
	})
	return compiledSchema, schemaErr
}

// Data is exposed to the task file template.
type Data struct {
	Platform string            // detected platform, e.g. linux-x86_64
	Dir      string            // absolute directory of the task file
	Env      map[string]string // process environment
}

// NewData returns template data for a task file located in dir.
func NewData(dir string) Data {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return Data{Platform: builder.Detect(), Dir: dir, Env: env}
}

// Load reads the task file at path. Relative paths inside it are resolved
// against the file's directory.
func Load(path string) (*task.BuildTask, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	dir, err := filepath.Abs(filepath.Dir(path))
	if err != nil {
		return nil, err
	}
	t, err := Parse(path, content, NewData(dir))
	if err != nil {
		return nil, err
	}
	ResolvePaths(t, dir)
	return t, nil
}

// Parse renders, validates and decodes a task file. name is used in error
// messages only.
func Parse(name string, content []byte, data Data) (*task.BuildTask, error) {
	rendered, err := render(name, content, data)
	if err != nil {
		return nil, err
	}
	jsonData, err := yaml.YAMLToJSON(rendered)
	if err != nil {
		return nil, fmt.Errorf("%s: convert yaml to json: %w", name, err)
	}

	dec := json.NewDecoder(bytes.NewReader(jsonData))
	dec.UseNumber()
	var document any
	if err := dec.Decode(&document); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if document == nil {
		document = map[string]any{}
	}
	canonicalizeMaps(document)

	sch, err := loadSchema()
	if err != nil {
		return nil, err
	}
	if err := sch.Validate(document); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	canonical, err := json.Marshal(document)
	if err != nil {
		return nil, err
	}
	t := task.New()
	if err := json.Unmarshal(canonical, t); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return t, nil
}

func render(name string, content []byte, data Data) ([]byte, error) {
	tmpl, err := template.New(filepath.Base(name)).
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(string(content))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return buf.Bytes(), nil
}

// canonicalizeMaps turns scalar values of the string maps into strings, so
// "optimize: 2" and "optimize: '2'" mean the same thing.
func canonicalizeMaps(document any) {
	root, ok := document.(map[string]any)
	if !ok {
		return
	}
	for _, key := range []string{"propertyKeysAndValues", "environmentVariables"} {
		m, ok := root[key].(map[string]any)
		if !ok {
			continue
		}
		for k, v := range m {
			switch v.(type) {
			case json.Number, bool:
				m[k] = fmt.Sprint(v)
			}
		}
	}
}

// ResolvePaths makes the filesystem paths of t absolute relative to dir.
// Resource names, commands and class names are left alone.
func ResolvePaths(t *task.BuildTask, dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	absList := func(ps []string) []string {
		if ps == nil {
			return nil
		}
		out := make([]string, len(ps))
		for i, p := range ps {
			out[i] = abs(p)
		}
		return out
	}

	t.OutputDirectory = abs(t.OutputDirectory)
	t.ConfigDirectory = abs(t.ConfigDirectory)
	t.PropertyFile = abs(t.PropertyFile)
	t.WorkingDirectory = abs(t.WorkingDirectory)
	t.ClassPath = absList(t.ClassPath)
	t.TargetDirectory = absList(t.TargetDirectory)
	for _, c := range []task.Category{
		task.IncludePath, task.BuildPath, task.LinkPath,
		task.PreloadPath, task.ResourcePath, task.ExecutablePath,
	} {
		t.SetPaths(c, absList(t.Paths(c)))
	}
}
