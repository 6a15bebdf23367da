package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/jacentio/docket/store"
)

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get [collection] [id]",
		Short: "Print a document as YAML",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := a.collection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			docs, err := coll.Find(cmd.Context(), store.Eq(store.IDField, args[1]), store.FindOptions{Limit: 1})
			if err != nil {
				return err
			}
			if len(docs) == 0 {
				return fmt.Errorf("%s in %s: %w", args[1], args[0], store.ErrNotFound)
			}

			node, err := documentNode(docs[0])
			if err != nil {
				return err
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(node); err != nil {
				return err
			}
			return enc.Close()
		},
	}
}
