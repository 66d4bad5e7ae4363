package cmd

import (
	"github.com/portwatch"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

const unset = "-"

type Flags struct {
	Paths portwatch.StandardPaths
}

func Run() error {
	conf := &portwatch.Configuration{}
	var f Flags

	com := &cobra.Command{
		Use:   "portwatch",
		Short: "Find occupied TCP ports and the processes behind them",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Initial checks. Binds environment variables and standard paths

			// 1. bind the paths. Overrides defaults.
			portwatch.BindStandardPaths(&f.Paths)
			// 2. initialize directories and load the configuration
			return portwatch.LoadConfiguration(f.Paths, conf)
		},
	}

	// This set of flags propagates
	fl := com.PersistentFlags()

	stdpaths := &f.Paths
	pathFlags := pflag.NewFlagSet("Standard Paths", pflag.ExitOnError)
	pathFlags.StringVar(&stdpaths.APPNAME, "stdpath.app", unset, "App name")
	pathFlags.StringVar(&stdpaths.STATE_HOME, "stdpath.state", unset, "State directory")
	pathFlags.StringVar(&stdpaths.DATA_HOME, "stdpath.data", unset, "Data directory")
	fl.AddFlagSet(pathFlags)

	com.AddCommand(
		scanCommand(conf),
		historyCommand(conf),
	)

	return com.Execute()
}
