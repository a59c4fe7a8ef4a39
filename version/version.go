package version

import (
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
)

// validCharacters is a list of characters valid in the build metadata
const validCharacters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

const (
	appMajor uint = 1
	appMinor uint = 3
	appPatch uint = 0
)

// appBuild is defined as a variable so it can be overridden during the build
// process with '-ldflags "-X github.com/smartcash/smartrewardsd/version.appBuild=foo"' if needed.
// It MUST only contain characters from validCharacters.
var appBuild string

var (
	version     string
	versionOnce sync.Once
)

// Version returns the application version as a properly formed string.
// Without an explicit build string, the short VCS revision stamped by the
// Go toolchain is used as build metadata.
func Version() string {
	versionOnce.Do(func() {
		version = formatVersion(appBuild, vcsRevision())
	})
	return version
}

func formatVersion(build string, revision string) string {
	version := fmt.Sprintf("%d.%d.%d", appMajor, appMinor, appPatch)
	if build == "" {
		build = revision
	}
	build = checkAppBuild(build)
	if build != "" {
		version = fmt.Sprintf("%s-%s", version, build)
	}
	return version
}

func vcsRevision() string {
	buildInfo, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	for _, setting := range buildInfo.Settings {
		if setting.Key == "vcs.revision" && len(setting.Value) >= 8 {
			return setting.Value[:8]
		}
	}
	return ""
}

// checkAppBuild returns the passed string unless it contains any characters not in validCharacters
// If any invalid characters are encountered - an empty string is returned
func checkAppBuild(str string) string {
	for _, r := range str {
		if !strings.ContainsRune(validCharacters, r) {
			return ""
		}
	}
	return str
}
