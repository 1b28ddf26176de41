package commands

import (
	"github.com/mosaicnetworks/relay/src/config"
	"github.com/spf13/cobra"
)

var (
	_config = config.NewDefaultConfig()
)

//RootCmd is the root command for the relay
var RootCmd = &cobra.Command{
	Use:              "relay",
	Short:            "private transaction relay",
	TraverseChildren: true,
}
