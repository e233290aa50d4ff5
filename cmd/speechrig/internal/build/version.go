// SPDX-License-Identifier: EPL-2.0

// Package build holds build-time version information injected via ldflags.
//
//	go build -ldflags "-X github.com/ik5/speechrig/cmd/speechrig/internal/build.Version=v1.0.0 \
//	  -X github.com/ik5/speechrig/cmd/speechrig/internal/build.Commit=$(git rev-parse --short HEAD)"
package build

import (
	"fmt"
	"runtime"
)

var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info is the version as reported by `speechrig version --format json`.
type Info struct {
	Version string `json:"version"`
	Commit  string `json:"commit"`
	Date    string `json:"date"`
	Go      string `json:"go"`
	OS      string `json:"os"`
	Arch    string `json:"arch"`
}

func Get() Info {
	return Info{
		Version: Version,
		Commit:  Commit,
		Date:    Date,
		Go:      runtime.Version(),
		OS:      runtime.GOOS,
		Arch:    runtime.GOARCH,
	}
}

// String returns a formatted version string.
func String() string {
	return fmt.Sprintf("speechrig %s (%s) built %s %s/%s",
		Version, Commit, Date, runtime.GOOS, runtime.GOARCH)
}
