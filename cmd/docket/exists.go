package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/docket/store"
)

func newExistsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "exists [collection] [id]",
		Short: "Report whether a document exists",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := a.collection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			docs, err := coll.Find(cmd.Context(), store.Eq(store.IDField, args[1]), store.FindOptions{
				Projection: []string{store.IDField},
				Limit:      1,
			})
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), len(docs) > 0)
			return nil
		},
	}
}
