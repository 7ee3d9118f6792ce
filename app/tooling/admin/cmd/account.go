package cmd

import (
	"fmt"

	"github.com/ardanlabs/milkchain/foundation/keystore"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var accountCmd = &cobra.Command{
	Use:   "account",
	Short: "Print the address for the specified key",
	RunE:  accountRun,
}

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Print every address held in the keystore folder",
	RunE:  accountsRun,
}

func init() {
	rootCmd.AddCommand(accountCmd)
	rootCmd.AddCommand(accountsCmd)
}

func accountRun(cmd *cobra.Command, args []string) error {
	privateKey, err := crypto.LoadECDSA(getPrivateKeyPath())
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), crypto.PubkeyToAddress(privateKey.PublicKey).Hex())
	return nil
}

func accountsRun(cmd *cobra.Command, args []string) error {
	ks, err := keystore.New(accountPath)
	if err != nil {
		return err
	}

	for address, name := range ks.Copy() {
		fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s\n", name, address.Hex())
	}

	return nil
}
