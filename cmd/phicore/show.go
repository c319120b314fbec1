package main

import (
	"fmt"
	"math"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/robert-malhotra/phicore"
)

// summary accumulates statistics over batches of values.
type summary struct {
	n        float64
	mean, m2 float64
	min, max float64
}

func (s *summary) add(x []float64) {
	if len(x) == 0 {
		return
	}
	nb := float64(len(x))
	mean, m2 := x[0], 0.0
	if len(x) > 1 {
		var variance float64
		mean, variance = stat.MeanVariance(x, nil)
		m2 = variance * (nb - 1)
	}
	lo, hi := floats.Min(x), floats.Max(x)
	if s.n == 0 {
		s.min, s.max = lo, hi
	} else {
		s.min, s.max = math.Min(s.min, lo), math.Max(s.max, hi)
	}

	// Chan et al. pairwise update.
	total := s.n + nb
	delta := mean - s.mean
	s.mean += delta * nb / total
	s.m2 += m2 + delta*delta*s.n*nb/total
	s.n = total
}

func (s *summary) stddev() float64 {
	if s.n < 2 {
		return 0
	}
	return math.Sqrt(s.m2 / (s.n - 1))
}

func (a *app) showCmd() *cobra.Command {
	var memory float64
	cmd := &cobra.Command{
		Use:   "show FILE VAR",
		Short: "Summarize a variable: axes, units, coordinate ranges and value statistics",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := a.open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			if memory <= 0 {
				memory = a.cfg.Read.WorkingMemoryMiB
			}
			var (
				v      *phicore.View
				first  []float64
				values summary
			)
			err = f.ReadBatches(args[1], memory, func(_ phicore.Range, b *phicore.View) error {
				if v == nil {
					v = b
				}
				first = append(first, b.Coord(b.Dims[0])...)
				values.add(b.Data.Float64s())
				return nil
			})
			if err != nil {
				return err
			}
			if v == nil {
				return fmt.Errorf("%s is empty", args[1])
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "%s  %s  dtype %s\n", v.Name, dims(v), v.Data.DType())
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "AXIS\tUNIT\tLEN\tMIN\tMAX")
			for i, ax := range v.Dims {
				c := v.Coord(ax)
				if i == 0 {
					c = first
				}
				if len(c) == 0 {
					fmt.Fprintf(w, "%s\t%s\t0\t-\t-\n", ax, v.Unit(ax))
					continue
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%g\t%g\n", ax, v.Unit(ax), len(c), floats.Min(c), floats.Max(c))
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(out, "values: n=%d min=%g max=%g mean=%g stddev=%g\n",
				int(values.n), values.min, values.max, values.mean, values.stddev())
			for _, k := range sortedKeys(v.Attrs) {
				fmt.Fprintf(out, "%s: %s\n", k, v.Attrs[k])
			}
			return nil
		},
	}
	cmd.Flags().Float64Var(&memory, "memory", 0, "working memory per batch in MiB (default from config)")
	return cmd
}

func dims(v *phicore.View) string {
	s := "("
	for i, ax := range v.Dims {
		if i > 0 {
			s += ", "
		}
		s += ax.String()
	}
	return s + ")"
}
