// Copyright © 2018 One Concern

package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"strings"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags "-X github.com/oneconcern/pokedex/cmd/pokedex/cmd.Version=..."
var (
	Version   string
	BuildDate string
	GitCommit string
	GitState  string
)

// VersionInfo describes the build of the binary
type VersionInfo struct {
	Version   string `json:"version,omitempty" yaml:"version,omitempty"`
	BuildDate string `json:"buildDate,omitempty" yaml:"buildDate,omitempty"`
	GitCommit string `json:"gitCommit,omitempty" yaml:"gitCommit,omitempty"`
	GitState  string `json:"gitState,omitempty" yaml:"gitState,omitempty"`
	GoVersion string `json:"goVersion,omitempty" yaml:"goVersion,omitempty"`
}

// NewVersionInfo from build information. Binaries installed with "go install" report their module version.
func NewVersionInfo() VersionInfo {
	ver := VersionInfo{
		Version:   "dev",
		BuildDate: BuildDate,
		GitCommit: GitCommit,
		GitState:  GitState,
		GoVersion: runtime.Version(),
	}
	switch {
	case Version != "":
		ver.Version = Version
		if ver.GitState == "" {
			ver.GitState = "clean"
		}
	default:
		if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
			ver.Version = info.Main.Version
		}
	}
	return ver
}

func (v VersionInfo) String() string {
	var b strings.Builder
	for _, line := range [][2]string{
		{"Version", v.Version},
		{"Build date", v.BuildDate},
		{"Commit", v.GitCommit},
		{"Working tree", v.GitState},
		{"Go", v.GoVersion},
	} {
		fmt.Fprintf(&b, "%-13s %s\n", line[0]+":", line[1])
	}
	return b.String()
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version of pokedex",
	Long: `Print the version of pokedex:
	* Semver (output of git describe --tags)
	* Build date
	* Git commit the binary was built from
	* Git state: dirty when there were uncommitted changes during the build
`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		infof(cmd.OutOrStdout(), "%s", NewVersionInfo())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
