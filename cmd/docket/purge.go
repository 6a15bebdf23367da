package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

var errNotConfirmed = errors.New("purge not confirmed, pass --yes")

func newPurgeCmd(a *app) *cobra.Command {
	var (
		typeTag string
		yes     bool
	)
	cmd := &cobra.Command{
		Use:   "purge [collection]",
		Short: "Delete every document in a collection",
		Long: `Purge removes all documents of a collection, or only those carrying the
type tag given with --type. The collection itself is kept.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !yes {
				return errNotConfirmed
			}
			coll, err := a.collection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			n, err := coll.Remove(cmd.Context(), typeFilter(typeTag))
			if err != nil {
				return err
			}
			a.logger.Info("purged collection", "collection", args[0], "type", typeTag, "removed", n)
			fmt.Fprintf(cmd.OutOrStdout(), "Purged %d documents from %s\n", n, args[0])
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeTag, "type", "t", "", "Only documents with this type tag")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Confirm the purge")
	return cmd
}
