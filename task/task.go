// Package task implements a build task that configures and drives the JavaCPP
// native code generator, then publishes the properties it resolved.
//
// A BuildTask is plain data: it holds the options exactly as the enclosing
// build declared them. A Runner turns one BuildTask into one builder
// invocation.
package task

// BuildTask holds the options of one task. List fields distinguish absent
// (nil, the builder default applies) from present; an empty non-nil list is
// passed through and clears the builder default.
type BuildTask struct {
	// ClassPath loads user classes from these entries.
	ClassPath []string `json:"classPath"`

	IncludePath     []string `json:"includePath"`     // platform.includepath
	IncludeResource []string `json:"includeResource"` // platform.includeresource
	BuildPath       []string `json:"buildPath"`       // platform.buildpath
	BuildResource   []string `json:"buildResource"`   // platform.buildresource
	LinkPath        []string `json:"linkPath"`        // platform.linkpath
	LinkResource    []string `json:"linkResource"`    // platform.linkresource
	PreloadPath     []string `json:"preloadPath"`     // platform.preloadpath
	PreloadResource []string `json:"preloadResource"` // platform.preloadresource
	ResourcePath    []string `json:"resourcePath"`    // platform.resourcepath
	ExecutablePath  []string `json:"executablePath"`  // platform.executablepath

	// Encoding is the character encoding used for input and output.
	Encoding string `json:"encoding"`
	// OutputDirectory receives all generated files.
	OutputDirectory string `json:"outputDirectory"`
	// OutputName puts everything in one library named after it.
	OutputName string `json:"outputName"`

	Clean          bool `json:"clean"`          // delete OutputDirectory content first
	Generate       bool `json:"generate"`       // generate .cpp files
	Compile        bool `json:"compile"`        // compile the generated files
	DeleteJniFiles bool `json:"deleteJniFiles"` // delete generated JNI files after compiling
	Header         bool `json:"header"`         // emit a header declaring callback functions
	CopyLibs       bool `json:"copyLibs"`       // copy dependent libraries to the output
	CopyResources  bool `json:"copyResources"`  // copy resources listed in properties

	// ConfigDirectory also receives GraalVM native-image config files.
	ConfigDirectory string `json:"configDirectory"`
	// JarPrefix also creates <JarPrefix>-<platform>.jar.
	JarPrefix string `json:"jarPrefix"`

	// Properties names a property resource to load, usually a platform.
	Properties string `json:"properties"`
	// PropertyFile is a .properties file loaded over the resource.
	PropertyFile string `json:"propertyFile"`
	// PropertyKeysAndValues are set last and override both of the above.
	PropertyKeysAndValues map[string]string `json:"propertyKeysAndValues"`

	// ClassOrPackageNames restricts processing to these classes or packages
	// (suffixed with .* or .**).
	ClassOrPackageNames []string `json:"classOrPackageNames"`
	// BuildCommand is executed instead of JavaCPP itself.
	BuildCommand []string `json:"buildCommand"`
	// TargetDirectory lists source directories of files generated by
	// BuildCommand.
	TargetDirectory []string `json:"targetDirectory"`
	// WorkingDirectory of the build subprocess.
	WorkingDirectory string `json:"workingDirectory"`
	// EnvironmentVariables are added to the build subprocess.
	EnvironmentVariables map[string]string `json:"environmentVariables"`
	// CompilerOptions are passed directly to the compiler.
	CompilerOptions []string `json:"compilerOptions"`

	Skip bool `json:"skip"`
}

// New returns a BuildTask with the JavaCPP defaults: generate, compile and
// delete the generated JNI files.
func New() *BuildTask {
	return &BuildTask{
		Generate:       true,
		Compile:        true,
		DeleteJniFiles: true,
	}
}

// Category is a path or resource list registered as a platform property.
type Category string

const (
	IncludePath     Category = "includepath"
	IncludeResource Category = "includeresource"
	BuildPath       Category = "buildpath"
	BuildResource   Category = "buildresource"
	LinkPath        Category = "linkpath"
	LinkResource    Category = "linkresource"
	PreloadPath     Category = "preloadpath"
	PreloadResource Category = "preloadresource"
	ResourcePath    Category = "resourcepath"
	ExecutablePath  Category = "executablepath"
)

// Categories lists every category in registration order.
var Categories = []Category{
	BuildPath, BuildResource,
	IncludePath, IncludeResource,
	LinkPath, LinkResource,
	PreloadPath, PreloadResource,
	ResourcePath, ExecutablePath,
}

// Property returns the property name of c, e.g. "platform.linkpath".
func (c Category) Property() string {
	return "platform." + string(c)
}

// Paths returns the list configured for c, nil when absent.
func (t *BuildTask) Paths(c Category) []string {
	switch c {
	case IncludePath:
		return t.IncludePath
	case IncludeResource:
		return t.IncludeResource
	case BuildPath:
		return t.BuildPath
	case BuildResource:
		return t.BuildResource
	case LinkPath:
		return t.LinkPath
	case LinkResource:
		return t.LinkResource
	case PreloadPath:
		return t.PreloadPath
	case PreloadResource:
		return t.PreloadResource
	case ResourcePath:
		return t.ResourcePath
	case ExecutablePath:
		return t.ExecutablePath
	}
	return nil
}

// SetPaths replaces the list configured for c. It returns false for an
// unknown category.
func (t *BuildTask) SetPaths(c Category, paths []string) bool {
	switch c {
	case IncludePath:
		t.IncludePath = paths
	case IncludeResource:
		t.IncludeResource = paths
	case BuildPath:
		t.BuildPath = paths
	case BuildResource:
		t.BuildResource = paths
	case LinkPath:
		t.LinkPath = paths
	case LinkResource:
		t.LinkResource = paths
	case PreloadPath:
		t.PreloadPath = paths
	case PreloadResource:
		t.PreloadResource = paths
	case ResourcePath:
		t.ResourcePath = paths
	case ExecutablePath:
		t.ExecutablePath = paths
	default:
		return false
	}
	return true
}
