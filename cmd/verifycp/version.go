// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

// revisions are shown abbreviated in the text output
const shortRevision = 12

// VersionInfo represents the version information of the binary
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version"`
	Platform  string `json:"platform"`
	VCS       string `json:"vcs,omitempty"`
	Revision  string `json:"revision,omitempty"`
	Time      string `json:"time,omitempty"`
	Modified  bool   `json:"modified"`
}

// GetVersionInfo returns the version information of the running binary
func GetVersionInfo() *VersionInfo {
	bi, _ := debug.ReadBuildInfo()
	return versionFromBuildInfo(bi)
}

// versionFromBuildInfo reads the module version and vcs stamps; bi may be nil
// for binaries built without module support
func versionFromBuildInfo(bi *debug.BuildInfo) *VersionInfo {
	info := &VersionInfo{
		Version:   "dev",
		GoVersion: runtime.Version(),
		Platform:  fmt.Sprintf("%s/%s", runtime.GOOS, runtime.GOARCH),
	}
	if bi == nil {
		return info
	}

	// go run and go build inside the module report (devel)
	if v := bi.Main.Version; v != "" && v != "(devel)" {
		info.Version = v
	}
	for _, setting := range bi.Settings {
		switch setting.Key {
		case "vcs":
			info.VCS = setting.Value
		case "vcs.revision":
			info.Revision = setting.Value
		case "vcs.time":
			info.Time = setting.Value
		case "vcs.modified":
			info.Modified = setting.Value == "true"
		}
	}
	return info
}

// 🚀 FormatVersion renders version information for humans. Lines without a
// value are left out, so a dev build prints only what it knows.
func FormatVersion(info *VersionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "🚀 verifycp %s\n", color.New(color.Bold).Sprint(info.Version))

	if info.Revision != "" {
		rev := info.Revision
		if len(rev) > shortRevision {
			rev = rev[:shortRevision]
		}
		if info.VCS != "" {
			rev = info.VCS + " " + rev
		}
		if info.Modified {
			rev += color.YellowString(" (modified)")
		}
		fmt.Fprintf(&b, "   revision  %s\n", rev)
	}
	if info.Time != "" {
		fmt.Fprintf(&b, "   built     %s\n", info.Time)
	}
	fmt.Fprintf(&b, "   go        %s %s\n", info.GoVersion, info.Platform)
	return b.String()
}

func newVersionCmd(stdout io.Writer) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			info := GetVersionInfo()
			if asJSON {
				enc := json.NewEncoder(stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(info)
			}
			_, err := fmt.Fprint(stdout, FormatVersion(info))
			return err
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print build information as JSON")
	return cmd
}
