package task

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sort"

	"github.com/goplus/jcpptask/builder"
)

// Result is the outcome of one Run.
type Result struct {
	// Skipped reports that the task was configured to skip.
	Skipped bool
	// Files lists the produced output files.
	Files []string
	// Properties is the builder's final property table.
	Properties map[string]string
	// SourceDirs lists directories holding sources generated by the build
	// command, taken from BuildTask.TargetDirectory.
	SourceDirs []string
}

// Runner executes build tasks.
type Runner struct {
	// NewBuilder creates the delegated builder. Required.
	NewBuilder builder.Factory
	// Namespace receives the resolved properties. Optional.
	Namespace Namespace
	// Prefix of published keys, DefaultPrefix when empty.
	Prefix string
	// Logger defaults to builder.Discard.
	Logger builder.Logger
	// Executor is handed to the builder; nil lets the builder pick its own.
	Executor builder.Executor
	// Detect reports the host platform for logging, builder.Detect when nil.
	Detect func() string
}

// Options converts t into builder options. Slices and maps are copied so the
// request cannot change once the builder holds it.
func (t *BuildTask) Options() builder.Options {
	return builder.Options{
		ClassPath:           slices.Clone(t.ClassPath),
		Encoding:            t.Encoding,
		OutputDirectory:     t.OutputDirectory,
		OutputName:          t.OutputName,
		Clean:               t.Clean,
		Generate:            t.Generate,
		Compile:             t.Compile,
		DeleteJniFiles:      t.DeleteJniFiles,
		Header:              t.Header,
		CopyLibs:            t.CopyLibs,
		CopyResources:       t.CopyResources,
		ConfigDirectory:     t.ConfigDirectory,
		JarPrefix:           t.JarPrefix,
		PropertyResource:    t.Properties,
		PropertyFile:        t.PropertyFile,
		Properties:          maps.Clone(t.PropertyKeysAndValues),
		ClassOrPackageNames: slices.Clone(t.ClassOrPackageNames),
		BuildCommand:        slices.Clone(t.BuildCommand),
		WorkingDirectory:    t.WorkingDirectory,
		Environment:         maps.Clone(t.EnvironmentVariables),
		CompilerOptions:     slices.Clone(t.CompilerOptions),
	}
}

// Run executes t once. When t.Skip is set nothing else happens. Errors from
// the builder are returned as is, and in that case nothing is published.
func (r *Runner) Run(ctx context.Context, t *BuildTask) (*Result, error) {
	logger := r.Logger
	if logger == nil {
		logger = builder.Discard
	}
	if t.Skip {
		logger.Infof("Skipping execution of JavaCPP Builder")
		return &Result{Skipped: true}, nil
	}

	if r.NewBuilder == nil {
		return nil, errors.New("task: Runner.NewBuilder is not set")
	}
	b, err := r.NewBuilder(t.Options(), logger, r.Executor)
	if err != nil {
		return nil, err
	}
	for _, c := range Categories {
		if paths := t.Paths(c); paths != nil {
			b.AddProperty(c.Property(), slices.Clone(paths))
		}
	}

	out, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = &builder.Output{}
	}

	detect := r.Detect
	if detect == nil {
		detect = builder.Detect
	}
	platform, _ := b.Property("platform")
	logger.Infof("Detected platform %q", detect())
	if ext, _ := b.Property("platform.extension"); ext != "" {
		logger.Infof("Building platform %q with extension %q", platform, ext)
	} else {
		logger.Infof("Building platform %q", platform)
	}

	props := out.Properties
	if props == nil {
		props = b.Properties()
	}
	r.publish(props)

	logger.Debugf("outputFiles: %v", out.Files)

	res := &Result{
		Files:      out.Files,
		Properties: props,
	}
	if len(t.BuildCommand) > 0 {
		res.SourceDirs = slices.Clone(t.TargetDirectory)
	}
	return res, nil
}

func (r *Runner) publish(props map[string]string) {
	if r.Namespace == nil {
		return
	}
	prefix := r.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		r.Namespace.Set(prefix+"."+k, props[k])
	}
}
