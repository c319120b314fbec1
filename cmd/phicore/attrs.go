package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/robert-malhotra/phicore/hdf5"
)

func (a *app) attrsCmd() *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "attrs FILE [LOCATION]",
		Short: "Print attributes as YAML",
		Long: `Print the attributes of a node as YAML. LOCATION defaults to the root
group. A location of the form /data/Sxyw@scales prints a single attribute.`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			var doc any
			switch {
			case all:
				doc, err = allAttrs(f.HDF5())
			case len(args) == 2 && strings.Contains(args[1], "@"):
				doc, err = oneAttr(f.HDF5(), args[1])
			default:
				location := ""
				if len(args) == 2 {
					location = args[1]
				}
				doc, err = f.Attrs(location)
			}
			if err != nil {
				return err
			}

			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(doc); err != nil {
				return err
			}
			return enc.Close()
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "print the attributes of every object in the file")
	return cmd
}

func oneAttr(f *hdf5.File, attrPath string) (any, error) {
	attr, err := f.Attr(attrPath)
	if err != nil {
		return nil, err
	}
	v, err := attr.Value()
	if err != nil {
		return nil, err
	}
	return map[string]any{attr.Name(): v}, nil
}

// allAttrs groups every attribute in the file by object path.
func allAttrs(f *hdf5.File) (map[string]map[string]any, error) {
	out := make(map[string]map[string]any)
	err := f.WalkAttrs(func(info hdf5.AttrInfo) error {
		m := out[info.ObjectPath]
		if m == nil {
			m = make(map[string]any)
			out[info.ObjectPath] = m
		}
		if info.Err != nil {
			m[info.Name] = fmt.Sprintf("<%v>", info.Err)
			return nil
		}
		m[info.Name] = info.Value
		return nil
	})
	return out, err
}
