package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func (a *app) lsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ls FILE",
		Short: "List the data variables of a container",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			names, err := f.List("")
			if err != nil {
				return err
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSHAPE\tDTYPE\tAXES\tSTORAGE")
			for _, name := range names {
				ds, err := f.HDF5().OpenDataset(name)
				if err != nil {
					return err
				}
				attrs, err := f.Attrs(name)
				if err != nil {
					return err
				}
				storage := ds.Layout()
				if filters := ds.Filters(); len(filters) > 0 {
					storage = fmt.Sprintf("%s %v", storage, filters)
				}
				fmt.Fprintf(w, "%s\t%v\t%s\t%s\t%s\n", name, ds.Shape(), ds.Dtype(), attrs["scales"], storage)
			}
			return w.Flush()
		},
	}
}
