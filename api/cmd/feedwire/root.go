package feedwire

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/feedwire/feedwire/api/pkg/cli/edit"
	"github.com/feedwire/feedwire/api/pkg/cli/send"
	"github.com/feedwire/feedwire/api/pkg/cli/watch"
)

var Fatal = FatalErrorHandler

func NewRootCmd() *cobra.Command {
	RootCmd := &cobra.Command{
		Use:   getCommandLineExecutable(),
		Short: "Feedwire",
		Long:  `Live shared message feed`,
	}

	RootCmd.AddCommand(watch.New())
	RootCmd.AddCommand(send.New())
	RootCmd.AddCommand(edit.New())

	RootCmd.AddCommand(newServeCmd())
	RootCmd.AddCommand(newVersionCommand())

	return RootCmd
}

func Execute() {
	RootCmd := NewRootCmd()
	RootCmd.SetContext(context.Background())
	RootCmd.SetOutput(os.Stdout)

	if err := RootCmd.Execute(); err != nil {
		Fatal(RootCmd, err.Error(), 1)
	}
}
