// Package version provides the version command.
package version

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/cohabs/stripesync/internal/appcontext"
	"github.com/cohabs/stripesync/internal/cmd/output"
)

// Info is the build information printed by the command.
type Info struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	BuiltBy   string `json:"built_by" yaml:"built_by"`
	GoVersion string `json:"go_version" yaml:"go_version"`
	Platform  string `json:"platform" yaml:"platform"`
}

// NewCommand creates the version command using app context.
func NewCommand(app appcontext.Interface) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			info := Info{
				Version:   app.Version(),
				Commit:    app.Commit(),
				Date:      app.Date(),
				BuiltBy:   app.BuiltBy(),
				GoVersion: runtime.Version(),
				Platform:  runtime.GOOS + "/" + runtime.GOARCH,
			}

			switch format := output.Format(app.OutputFormat()); format {
			case output.FormatJSON, output.FormatYAML:
				return output.NewFormatter(format).Format(app.Out(), info)
			default:
				w := app.Out()
				fmt.Fprintf(w, "stripesync version %s\n", info.Version)
				fmt.Fprintf(w, "commit: %s\n", info.Commit)
				fmt.Fprintf(w, "built: %s\n", info.Date)
				fmt.Fprintf(w, "built by: %s\n", info.BuiltBy)
				fmt.Fprintf(w, "go version: %s\n", info.GoVersion)
				fmt.Fprintf(w, "platform: %s\n", info.Platform)
				return nil
			}
		},
	}
}
