package cli

import (
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version is set at build time with -ldflags "-X github.com/syssam/sqlbind/internal/cli.Version=...".
var Version = ""

// VersionInfo is the output of the version command.
type VersionInfo struct {
	Version   string `json:"version"`
	GoVersion string `json:"go_version,omitempty"`
}

func (v VersionInfo) String() string {
	return "sqlbind " + v.Version
}

// NewVersionCommand creates the version command.
func NewVersionCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return newFormatter(rootOpts, cmd.OutOrStdout(), cmd.ErrOrStderr()).Success(version())
		},
	}
}

func version() VersionInfo {
	v := VersionInfo{Version: Version}
	if info, ok := debug.ReadBuildInfo(); ok {
		v.GoVersion = info.GoVersion
		if v.Version == "" && info.Main.Version != "" {
			v.Version = info.Main.Version
		}
	}
	if v.Version == "" {
		v.Version = "(devel)"
	}
	return v
}
