package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jacentio/docket/store"
)

func newIDsCmd(a *app) *cobra.Command {
	var typeTag string
	cmd := &cobra.Command{
		Use:   "ids [collection]",
		Short: "List document identifiers",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			coll, err := a.collection(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			docs, err := coll.Find(cmd.Context(), typeFilter(typeTag), store.FindOptions{
				Projection: []string{store.IDField},
			})
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, d := range docs {
				if id := d.ID(); id != "" {
					fmt.Fprintln(out, id)
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&typeTag, "type", "t", "", "Only documents with this type tag")
	return cmd
}

// typeFilter matches documents of one type, or all documents when tag is empty.
func typeFilter(tag string) store.Filter {
	if tag == "" {
		return store.All()
	}
	return store.Eq(store.TypeField, tag)
}
