package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ardanlabs/milkchain/foundation/contract"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/spf13/cobra"
)

var abiPath string

var abiCmd = &cobra.Command{
	Use:   "abi",
	Short: "List the methods declared by the contract artifact",
	RunE:  abiRun,
}

func init() {
	abiCmd.Flags().StringVar(&abiPath, "path", "build/contracts/FarmerProcessorDelegate.json", "Path to the contract artifact or ABI file.")
	rootCmd.AddCommand(abiCmd)
}

func abiRun(cmd *cobra.Command, args []string) error {
	contractABI, err := contract.LoadABI(abiPath)
	if err != nil {
		return err
	}

	names := make([]string, 0, len(contractABI.Methods))
	for name := range contractABI.Methods {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		m := contractABI.Methods[name]

		mutability := "transact"
		if m.IsConstant() {
			mutability = "view"
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%-9s %s -> %s\n", mutability, m.Sig, outputTypes(m.Outputs))
	}

	return nil
}

func outputTypes(args abi.Arguments) string {
	types := make([]string, len(args))
	for i, arg := range args {
		types[i] = arg.Type.String()
	}
	return "(" + strings.Join(types, ",") + ")"
}
