package main

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/phicore/hdf5"
)

func (a *app) treeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tree FILE",
		Short: "Print every group and dataset in the file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			out := cmd.OutOrStdout()
			h := f.HDF5()
			fmt.Fprintf(out, "%s (superblock v%d)\n", f.Path(), h.Version())
			return hdf5.Walk(h.Root(), func(path string, obj any, err error) error {
				printNode(out, path, obj, err)
				return nil
			})
		},
	}
}

func printNode(w io.Writer, path string, obj any, err error) {
	depth := strings.Count(path, "/")
	if path == "/" {
		depth = 0
	}
	indent := strings.Repeat("  ", depth)
	name := path[strings.LastIndex(path, "/")+1:]
	switch o := obj.(type) {
	case *hdf5.Group:
		fmt.Fprintf(w, "%s%s/%s\n", indent, name, attrList(o.Attrs()))
	case *hdf5.Dataset:
		storage := o.Layout()
		if filters := o.Filters(); len(filters) > 0 {
			storage += " " + strings.Join(filters, "+")
		}
		fmt.Fprintf(w, "%s%s %v %s %s%s\n", indent, name, o.Shape(), o.Dtype(), storage, attrList(o.Attrs()))
	default:
		fmt.Fprintf(w, "%s%s ERROR: %v\n", indent, name, err)
	}
}

func attrList(names []string) string {
	if len(names) == 0 {
		return ""
	}
	sort.Strings(names)
	return " @" + strings.Join(names, " @")
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
