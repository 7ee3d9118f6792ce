package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/ardanlabs/milkchain/business/core/order"
	"github.com/ardanlabs/milkchain/business/core/order/stores/orderdb"
	"github.com/ardanlabs/milkchain/business/core/user"
	"github.com/ardanlabs/milkchain/business/core/user/stores/userdb"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	page    int
	perPage int
)

var usersCmd = &cobra.Command{
	Use:   "users",
	Short: "List registered users",
	RunE:  usersRun,
}

var ordersCmd = &cobra.Command{
	Use:   "orders",
	Short: "List the local order summaries",
	RunE:  ordersRun,
}

var indexesCmd = &cobra.Command{
	Use:   "indexes",
	Short: "Create the indexes the user collection relies on",
	RunE:  indexesRun,
}

func init() {
	for _, c := range []*cobra.Command{usersCmd, ordersCmd} {
		c.Flags().IntVar(&page, "page", 1, "Page to display.")
		c.Flags().IntVar(&perPage, "per-page", 20, "Rows per page.")
		rootCmd.AddCommand(c)
	}
	rootCmd.AddCommand(indexesCmd)
}

func usersRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), dbTimeout)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	core := user.NewCore(zap.NewNop().Sugar(), userdb.NewStore(zap.NewNop().Sugar(), db))

	usrs, err := core.Query(ctx, page, perPage)
	if err != nil {
		return fmt.Errorf("listing users: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tADDRESS\tROLE\tNAME\tCREATED")
	for _, usr := range usrs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", usr.ID, usr.BlockchainAddress, usr.Role, usr.Name, usr.DateCreated.Format("2006-01-02 15:04"))
	}

	return w.Flush()
}

func ordersRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), dbTimeout)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	core := order.NewCore(zap.NewNop().Sugar(), orderdb.NewStore(zap.NewNop().Sugar(), db))

	ords, err := core.Query(ctx, page, perPage)
	if err != nil {
		return fmt.Errorf("listing orders: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tPROCESSOR\tQUANTITY\tTX\tCREATED")
	for _, ord := range ords {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\n", ord.ID, ord.ProcessorAddress, ord.Quantity, ord.TxHash, ord.DateCreated.Format("2006-01-02 15:04"))
	}

	return w.Flush()
}

func indexesRun(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), dbTimeout)
	defer cancel()

	db, err := openDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close(ctx)

	if err := userdb.NewStore(zap.NewNop().Sugar(), db).EnsureIndexes(ctx); err != nil {
		return fmt.Errorf("creating indexes: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "indexes created")
	return nil
}
