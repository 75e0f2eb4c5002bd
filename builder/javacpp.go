package builder

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/magiconair/properties"
)

// MainClass is the entry point of the JavaCPP command line builder.
const MainClass = "org.bytedeco.javacpp.tools.Builder"

// JavaCPP drives the JavaCPP Builder as a java subprocess. The property
// table is resolved locally so callers can inspect it before and after the
// build.
type JavaCPP struct {
	// Java is the java launcher, "java" by default.
	Java string
	// ToolClassPath holds the javacpp.jar location(s) put on the JVM class path.
	ToolClassPath []string

	opts   Options
	table  *properties.Properties
	added  []string
	logger Logger
	exec   Executor
}

var _ Builder = (*JavaCPP)(nil)

// NewJavaCPP resolves the property table for opts and returns a builder.
func NewJavaCPP(opts Options, logger Logger, exec Executor) (*JavaCPP, error) {
	if logger == nil {
		logger = Discard
	}
	table, err := ResolveProperties(opts, logger)
	if err != nil {
		return nil, err
	}
	if exec == nil {
		exec = NewExecExecutor(logger)
	}
	return &JavaCPP{
		Java:   "java",
		opts:   opts,
		table:  table,
		logger: logger,
		exec:   exec,
	}, nil
}

// JavaCPPFactory returns a Factory producing JavaCPP builders that run java
// with the given launcher and tool class path.
func JavaCPPFactory(java string, toolClassPath []string) Factory {
	return func(opts Options, logger Logger, exec Executor) (Builder, error) {
		b, err := NewJavaCPP(opts, logger, exec)
		if err != nil {
			return nil, err
		}
		if java != "" {
			b.Java = java
		}
		b.ToolClassPath = toolClassPath
		return b, nil
	}
}

func (b *JavaCPP) separator() string {
	if sep, ok := b.table.Get("platform.path.separator"); ok && sep != "" {
		return sep
	}
	return string(os.PathListSeparator)
}

// AddProperty appends values to name, separated by the platform path
// separator. Entries already present are not repeated. A nil values leaves
// the property alone; an empty one clears it.
func (b *JavaCPP) AddProperty(name string, values []string) {
	if name == "" || values == nil {
		return
	}
	if len(values) == 0 {
		b.table.Set(name, "")
	} else {
		sep := b.separator()
		var entries []string
		if cur := b.get(name); cur != "" {
			entries = strings.Split(cur, sep)
		}
		for _, v := range values {
			if v != "" && !slices.Contains(entries, v) {
				entries = append(entries, v)
			}
		}
		b.table.Set(name, strings.Join(entries, sep))
	}
	if !slices.Contains(b.added, name) {
		b.added = append(b.added, name)
	}
}

func (b *JavaCPP) get(name string) string {
	v, _ := b.table.Get(name)
	return v
}

func (b *JavaCPP) Property(name string) (string, bool) {
	return b.table.Get(name)
}

func (b *JavaCPP) Properties() map[string]string {
	return b.table.Map()
}

// Build runs the configured build command, or the JavaCPP Builder when no
// command is configured.
func (b *JavaCPP) Build(ctx context.Context) (*Output, error) {
	if len(b.opts.BuildCommand) > 0 {
		b.logger.Debugf("running build command for platform %q", b.get("platform"))
		if err := b.exec.Execute(ctx, b.buildCommand()); err != nil {
			return nil, err
		}
		return &Output{Properties: b.Properties()}, nil
	}

	roots := b.outputRoots()
	before, err := scanFiles(roots)
	if err != nil {
		return nil, err
	}
	if err := b.exec.Execute(ctx, b.command()); err != nil {
		return nil, err
	}
	after, err := scanFiles(roots)
	if err != nil {
		return nil, err
	}
	files := changedFiles(before, after)
	return &Output{Files: files, Properties: b.Properties()}, nil
}

// buildCommand runs the user command with the resolved platform exported
// through the environment.
func (b *JavaCPP) buildCommand() Command {
	env := make(map[string]string, len(b.opts.Environment)+5)
	for k, v := range b.opts.Environment {
		env[k] = v
	}
	env["BUILD_PATH"] = b.get("platform.buildpath")
	env["BUILD_PATH_SEPARATOR"] = b.separator()
	env["PLATFORM"] = b.get("platform")
	env["PLATFORM_ROOT"] = b.get("platform.root")
	env["PLATFORM_COMPILER"] = b.get("platform.compiler")
	return Command{
		Args: append([]string(nil), b.opts.BuildCommand...),
		Dir:  b.opts.WorkingDirectory,
		Env:  env,
	}
}

// command assembles the java command line for the JavaCPP Builder.
func (b *JavaCPP) command() Command {
	o := b.opts
	args := []string{b.Java}
	if len(b.ToolClassPath) > 0 {
		args = append(args, "-cp", strings.Join(b.ToolClassPath, string(os.PathListSeparator)))
	}
	args = append(args, MainClass)

	if o.ClassPath != nil {
		args = append(args, "-classpath", strings.Join(o.ClassPath, string(os.PathListSeparator)))
	}
	if o.Encoding != "" {
		args = append(args, "-encoding", o.Encoding)
	}
	if o.OutputDirectory != "" {
		args = append(args, "-d", o.OutputDirectory)
	}
	if o.OutputName != "" {
		args = append(args, "-o", o.OutputName)
	}
	for _, f := range []struct {
		on   bool
		flag string
	}{
		{o.Clean, "-clean"},
		{!o.Generate, "-nogenerate"},
		{!o.Compile, "-nocompile"},
		{!o.DeleteJniFiles, "-nodelete"},
		{o.Header, "-header"},
		{o.CopyLibs, "-copylibs"},
		{o.CopyResources, "-copyresources"},
	} {
		if f.on {
			args = append(args, f.flag)
		}
	}
	if o.ConfigDirectory != "" {
		args = append(args, "-configdir", o.ConfigDirectory)
	}
	if o.JarPrefix != "" {
		args = append(args, "-jarprefix", o.JarPrefix)
	}
	if o.PropertyResource != "" {
		args = append(args, "-properties", o.PropertyResource)
	}
	if o.PropertyFile != "" {
		args = append(args, "-propertyfile", o.PropertyFile)
	}
	for _, kv := range b.defines() {
		args = append(args, "-D"+kv)
	}
	for _, opt := range o.CompilerOptions {
		args = append(args, "-Xcompiler", opt)
	}
	args = append(args, o.ClassOrPackageNames...)

	return Command{Args: args, Dir: o.WorkingDirectory, Env: o.Environment}
}

// defines returns sorted key=value pairs for the explicit properties and the
// properties registered through AddProperty.
func (b *JavaCPP) defines() []string {
	keys := make(map[string]bool, len(b.opts.Properties)+len(b.added))
	for k := range b.opts.Properties {
		keys[k] = true
	}
	for _, k := range b.added {
		keys[k] = true
	}
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k+"="+b.get(k))
	}
	sort.Strings(out)
	return out
}

// outputRoots returns the locations the JavaCPP Builder writes to: the
// output directory, the config directory and the jar made from JarPrefix.
func (b *JavaCPP) outputRoots() []string {
	o := b.opts
	var roots []string
	if o.OutputDirectory != "" {
		roots = append(roots, o.OutputDirectory)
	}
	if o.ConfigDirectory != "" {
		roots = append(roots, o.ConfigDirectory)
	}
	if o.JarPrefix != "" {
		jar := o.JarPrefix + "-" + b.get("platform") + b.get("platform.extension") + ".jar"
		if !filepath.IsAbs(jar) && o.WorkingDirectory != "" {
			jar = filepath.Join(o.WorkingDirectory, jar)
		}
		roots = append(roots, jar)
	}
	if len(roots) == 0 {
		b.logger.Debugf("no output locations, output files not collected")
	}
	return roots
}

// scanFiles records the modification time of every regular file under roots.
// Missing roots are skipped.
func scanFiles(roots []string) (map[string]time.Time, error) {
	files := make(map[string]time.Time)
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}
			info, err := d.Info()
			if err != nil {
				return err
			}
			files[path] = info.ModTime()
			return nil
		})
		if err != nil && !os.IsNotExist(err) {
			return nil, err
		}
	}
	return files, nil
}

// changedFiles returns, sorted, the files of after that are new or carry a
// different modification time than in before. This is an approximation for
// diagnostics: a file rewritten within the timestamp granularity of its
// filesystem goes unnoticed.
func changedFiles(before, after map[string]time.Time) []string {
	var files []string
	for path, mtime := range after {
		if old, ok := before[path]; !ok || !old.Equal(mtime) {
			files = append(files, path)
		}
	}
	sort.Strings(files)
	return files
}
