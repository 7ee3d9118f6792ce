package cmd

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var genkeyCmd = &cobra.Command{
	Use:   "genkey",
	Short: "Generate a new key pair in the keystore folder",
	RunE:  genkeyRun,
}

func init() {
	rootCmd.AddCommand(genkeyCmd)
}

func genkeyRun(cmd *cobra.Command, args []string) error {
	path := getPrivateKeyPath()

	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("key %s already exists", path)
	}

	if err := os.MkdirAll(accountPath, 0o700); err != nil {
		return fmt.Errorf("creating keystore folder: %w", err)
	}

	privateKey, err := crypto.GenerateKey()
	if err != nil {
		return fmt.Errorf("generating key: %w", err)
	}

	if err := crypto.SaveECDSA(path, privateKey); err != nil {
		return fmt.Errorf("saving key: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", path, crypto.PubkeyToAddress(privateKey.PublicKey).Hex())
	return nil
}
