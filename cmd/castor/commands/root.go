package commands

import (
	"github.com/spf13/cobra"

	"github.com/castornet/castor/src/config"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for Castor
var RootCmd = &cobra.Command{
	Use:              "castor",
	Short:            "castor validator node",
	TraverseChildren: true,
}
