package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/robert-malhotra/h5shard/ndarray"
	"github.com/robert-malhotra/h5shard/shard"
)

type arrayJSON struct {
	Dataset string `json:"dataset"`
	Kind    string `json:"kind"`
	Shape   []int  `json:"shape"`
	Values  any    `json:"values"`
}

func newGetCommand(c *cli) *cobra.Command {
	var (
		rows   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "get <dataset>",
		Short: "Load a dataset from every file and print it.",
		Long: `Loads a dataset from every file of the set and concatenates the pieces
along the first dimension in file order. Prints the kind, the merged shape
and the first --rows rows, or with --json the whole array with its values
flattened in row-major order.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withReader(func(r *shard.Reader) error {
				a, err := r.Get(cmdContext(cmd), args[0])
				if err != nil {
					return err
				}
				if asJSON {
					return c.writeJSON(arrayJSON{
						Dataset: args[0],
						Kind:    a.Kind().String(),
						Shape:   a.Shape(),
						Values:  a.Values(),
					})
				}
				return printArray(c, args[0], a, rows)
			})
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 5, "Number of leading rows to print; negative prints all.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the dataset as JSON.")
	return cmd
}

func printArray(c *cli, id string, a *ndarray.Array, rows int) error {
	fmt.Fprintf(c.stdout, "dataset: %s\nkind:    %s\nshape:   %v\n", id, a.Kind(), a.Shape())
	if a.Rank() == 0 {
		v, err := a.At()
		if err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "value:   %v\n", v)
		return nil
	}
	n := a.Len()
	if rows >= 0 && rows < n {
		n = rows
	}
	for i := 0; i < n; i++ {
		row, err := a.Row(i)
		if err != nil {
			return err
		}
		if row.Rank() == 0 {
			v, _ := row.At()
			fmt.Fprintf(c.stdout, "%d: %v\n", i, v)
		} else {
			fmt.Fprintf(c.stdout, "%d: %v\n", i, row.Values())
		}
	}
	if n < a.Len() {
		fmt.Fprintf(c.stdout, "... %d more rows\n", a.Len()-n)
	}
	return nil
}

func newInfoCommand(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "info <dataset>",
		Short: "Print the merged shape of a dataset without reading it.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withReader(func(r *shard.Reader) error {
				info, err := r.Describe(cmdContext(cmd), args[0])
				if err != nil {
					return err
				}
				files := r.Files()
				paths := make([]string, len(info.Files))
				for i, idx := range info.Files {
					paths[i] = files[idx]
				}
				if asJSON {
					return c.writeJSON(struct {
						Dataset string   `json:"dataset"`
						Kind    string   `json:"kind"`
						Shape   []int    `json:"shape"`
						Files   []string `json:"files"`
					}{args[0], info.Kind.String(), info.Shape, paths})
				}
				fmt.Fprintf(c.stdout, "dataset: %s\nkind:    %s\nshape:   %v\nfiles:   %d of %d\n",
					args[0], info.Kind, info.Shape, len(paths), len(files))
				for _, p := range paths {
					fmt.Fprintf(c.stdout, "  %s\n", p)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON.")
	return cmd
}

// Stats summarizes the elements of a numeric dataset.
type Stats struct {
	Count  int     `json:"count"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Summarize computes Stats over every element of a. An empty array has a
// zero Count and nothing else set.
func Summarize(a *ndarray.Array) (Stats, error) {
	x, err := a.Float64s()
	if err != nil {
		return Stats{}, err
	}
	if len(x) == 0 {
		return Stats{}, nil
	}
	s := Stats{Count: len(x), Min: floats.Min(x), Max: floats.Max(x)}
	if len(x) == 1 {
		s.Mean = x[0]
		return s, nil
	}
	s.Mean, s.StdDev = stat.MeanStdDev(x, nil)
	return s, nil
}

func newStatCommand(c *cli) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "stat <dataset>",
		Short: "Print summary statistics of a numeric dataset.",
		Long: `Loads a numeric dataset from every file and prints the element count,
minimum, maximum, mean and sample standard deviation over all elements.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withReader(func(r *shard.Reader) error {
				a, err := r.Get(cmdContext(cmd), args[0])
				if err != nil {
					return err
				}
				s, err := Summarize(a)
				if err != nil {
					return err
				}
				if asJSON {
					return c.writeJSON(s)
				}
				fmt.Fprintf(c.stdout, "count:  %d\nmin:    %g\nmax:    %g\nmean:   %g\nstddev: %g\n",
					s.Count, s.Min, s.Max, s.Mean, s.StdDev)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print as JSON.")
	return cmd
}

func cmdContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
