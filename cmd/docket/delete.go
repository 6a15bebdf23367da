package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/docket/store"
)

func newDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [collection] [id...]",
		Short: "Delete documents by identifier",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := a.collection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			ids := args[1:]
			n, err := coll.Remove(cmd.Context(), store.InStrings(store.IDField, ids))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d of %d documents\n", n, len(ids))
			return nil
		},
	}
}
