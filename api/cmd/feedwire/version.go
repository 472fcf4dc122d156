package feedwire

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/feedwire/feedwire/api/pkg/version"
)

func newVersionCommand() *cobra.Command {
	var versionCmd = &cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(*cobra.Command, []string) {
			fmt.Println(version.GetVersion())
		},
	}
	return versionCmd
}
