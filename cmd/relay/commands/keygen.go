package commands

import (
	"fmt"

	"github.com/mosaicnetworks/relay/src/relay"
	"github.com/spf13/cobra"
)

var keygenDataDir string

// NewKeygenCmd produces a KeygenCmd which creates a key pair in the keys file
// of a data directory.
func NewKeygenCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Create new key pair",
		RunE:  keygen,
	}

	AddKeygenFlags(cmd)

	return cmd
}

//AddKeygenFlags adds flags to the keygen command
func AddKeygenFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&keygenDataDir, "datadir", _config.DataDir, "Directory where the keys file will be written")
}

func keygen(cmd *cobra.Command, args []string) error {
	kps, err := relay.Keygen(keygenDataDir)
	if err != nil {
		return fmt.Errorf("Writing keys: %s", err)
	}

	for _, kp := range kps {
		fmt.Fprintf(cmd.OutOrStdout(), "Your public key is: %s\n", kp.Public)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Your keys have been saved under: %s\n", keygenDataDir)

	return nil
}
