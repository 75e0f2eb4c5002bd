// Package builder defines the contract of the native code generator driven by
// a build task, and ships a JavaCPP implementation that runs the generator as
// a subprocess.
package builder

import "context"

// Options carries every option a task hands to the generator. List fields
// follow the task convention: nil means "use the generator default".
type Options struct {
	ClassPath           []string
	Encoding            string
	OutputDirectory     string
	OutputName          string
	Clean               bool
	Generate            bool
	Compile             bool
	DeleteJniFiles      bool
	Header              bool
	CopyLibs            bool
	CopyResources       bool
	ConfigDirectory     string
	JarPrefix           string
	PropertyResource    string
	PropertyFile        string
	Properties          map[string]string
	ClassOrPackageNames []string
	BuildCommand        []string
	WorkingDirectory    string
	Environment         map[string]string
	CompilerOptions     []string
}

// Output is what a successful build produced.
type Output struct {
	Files      []string
	Properties map[string]string
}

// Builder generates and compiles native glue code.
type Builder interface {
	// AddProperty registers a named list property. A nil list leaves the
	// property untouched so the builder's own default applies.
	AddProperty(name string, values []string)

	// Property returns the current value of a property.
	Property(name string) (string, bool)

	// Properties returns a copy of the current property table.
	Properties() map[string]string

	// Build runs the generator once.
	Build(ctx context.Context) (*Output, error)
}

// Factory creates a Builder for one task invocation.
type Factory func(opts Options, logger Logger, exec Executor) (Builder, error)
