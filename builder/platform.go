package builder

import (
	"os"
	"runtime"
	"strings"
)

// PlatformEnv overrides platform detection when set.
const PlatformEnv = "JAVACPP_PLATFORM"

var osNames = map[string]string{
	"darwin":  "macosx",
	"linux":   "linux",
	"windows": "windows",
	"android": "android",
	"ios":     "ios",
	"freebsd": "freebsd",
}

var archNames = map[string]string{
	"386":      "x86",
	"amd64":    "x86_64",
	"arm64":    "arm64",
	"arm":      "armhf",
	"ppc64le":  "ppc64le",
	"riscv64":  "riscv64",
	"s390x":    "s390x",
	"mips64le": "mips64el",
}

// Detect returns the platform classifier of the running host, for example
// "linux-x86_64" or "macosx-arm64".
func Detect() string {
	if p := strings.TrimSpace(os.Getenv(PlatformEnv)); p != "" {
		return p
	}
	return Platform(runtime.GOOS, runtime.GOARCH)
}

// Platform maps a Go GOOS/GOARCH pair to a platform classifier.
// Unknown values are used as is.
func Platform(goos, goarch string) string {
	osName, ok := osNames[goos]
	if !ok {
		osName = goos
	}
	arch, ok := archNames[goarch]
	if !ok {
		arch = goarch
	}
	if osName == "android" && arch == "armhf" {
		arch = "arm"
	}
	return osName + "-" + arch
}
