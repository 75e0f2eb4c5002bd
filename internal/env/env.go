package env

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/mod/semver"
)

// JarEnv points at the javacpp.jar used to run the JavaCPP Builder.
const JarEnv = "JAVACPP_JAR"

// StateDir returns the per-project state directory, <root>/.jcpptask.
func StateDir(root string) string {
	return filepath.Join(root, ".jcpptask")
}

// ExtraPropsFile returns the default namespace file of a project.
func ExtraPropsFile(root string) string {
	return filepath.Join(StateDir(root), "extra.yaml")
}

// WorkDir returns the user-level cache directory of jcpptask.
func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".jcpptask"), nil
}

// Java returns the java launcher: $JAVA_HOME/bin/java when JAVA_HOME is set,
// "java" from PATH otherwise.
func Java() string {
	if home := os.Getenv("JAVA_HOME"); home != "" {
		return filepath.Join(home, "bin", "java")
	}
	return "java"
}

// ToolClassPath returns the class path holding the JavaCPP Builder. An
// explicit value wins over $JAVACPP_JAR, which wins over the jars cached in
// WorkDir. Among cached jars the newest javacpp-<version>.jar is used,
// followed by the javacpp-<version>-<platform>.jar files of that version; a
// plain javacpp.jar is the last resort.
func ToolClassPath(explicit string) []string {
	if explicit != "" {
		return filepath.SplitList(explicit)
	}
	if jar := os.Getenv(JarEnv); jar != "" {
		return filepath.SplitList(jar)
	}
	dir, err := WorkDir()
	if err != nil {
		return nil
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			names = append(names, e.Name())
		}
	}
	jars := selectJars(names)
	for i, name := range jars {
		jars[i] = filepath.Join(dir, name)
	}
	return jars
}

// selectJars picks the newest JavaCPP version out of names.
func selectJars(names []string) []string {
	latest := ""
	plain := false
	for _, name := range names {
		ver, platform, ok := parseJar(name)
		if !ok {
			continue
		}
		switch {
		case ver == "":
			plain = true
		case platform == "" && (latest == "" || semver.Compare(ver, latest) > 0):
			latest = ver
		}
	}
	if latest == "" {
		if plain {
			return []string{"javacpp.jar"}
		}
		return nil
	}

	var platformJars []string
	main := ""
	for _, name := range names {
		ver, platform, ok := parseJar(name)
		if !ok || ver != latest {
			continue
		}
		if platform == "" {
			main = name
		} else {
			platformJars = append(platformJars, name)
		}
	}
	sort.Strings(platformJars)
	return append([]string{main}, platformJars...)
}

// parseJar splits javacpp-<version>[-<platform>].jar. The version is
// returned in semver form ("v1.5.10"); it is empty for javacpp.jar.
func parseJar(name string) (version, platform string, ok bool) {
	if name == "javacpp.jar" {
		return "", "", true
	}
	rest, found := strings.CutPrefix(name, "javacpp-")
	if !found {
		return "", "", false
	}
	rest, found = strings.CutSuffix(rest, ".jar")
	if !found {
		return "", "", false
	}
	ver, platform, _ := strings.Cut(rest, "-")
	version = "v" + ver
	if !semver.IsValid(version) {
		return "", "", false
	}
	return version, platform, true
}
