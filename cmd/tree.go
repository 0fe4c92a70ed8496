package cmd

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5shard/hdf5"
	"github.com/robert-malhotra/h5shard/shard"
)

func newTreeCommand(c *cli) *cobra.Command {
	var fileIndex int
	cmd := &cobra.Command{
		Use:   "tree",
		Short: "Print the structure of one file of the set.",
		Long: `Walks one file of the set, the first by default, and prints every group
and dataset with its attributes, shape, storage layout and filters.
Problems opening an object are printed in place and do not stop the walk.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withReader(func(r *shard.Reader) error {
				files := r.Files()
				if fileIndex < 0 || fileIndex >= len(files) {
					return errors.Wrapf(shard.ErrFileIndex, "index %d, set has %d files", fileIndex, len(files))
				}
				return printTree(c, files[fileIndex])
			})
		},
	}
	cmd.Flags().IntVarP(&fileIndex, "file-index", "i", 0, "Index of the file to print.")
	return cmd
}

func printTree(c *cli, path string) error {
	f, err := hdf5.Open(path)
	if err != nil {
		return &shard.IOError{Path: path, Op: "open", Err: err}
	}
	defer f.Close()

	fmt.Fprintf(c.stdout, "%s (superblock version %d)\n", path, f.Version())
	return hdf5.Walk(f.Root(), func(p string, obj hdf5.Object, err error) error {
		indent := strings.Repeat("  ", depth(p))
		if err != nil {
			fmt.Fprintf(c.stdout, "%s%s: ERROR %v\n", indent, p, err)
			return nil
		}
		attrs, aerr := obj.Attrs()
		switch o := obj.(type) {
		case *hdf5.Group:
			members, merr := o.Members()
			if merr != nil {
				fmt.Fprintf(c.stdout, "%s%s/ ERROR listing members: %v\n", indent, p, merr)
				return hdf5.SkipGroup
			}
			fmt.Fprintf(c.stdout, "%s%s/ (%d members)\n", indent, strings.TrimSuffix(p, "/"), len(members))
		case *hdf5.Dataset:
			kind, kerr := o.Kind()
			kindName := kind.String()
			if kerr != nil {
				kindName = o.Datatype()
			}
			fmt.Fprintf(c.stdout, "%s%s %s %v %s", indent, p, kindName, o.Shape(), o.Layout())
			if chunks := o.ChunkShape(); chunks != nil {
				fmt.Fprintf(c.stdout, " chunks=%v", chunks)
			}
			if filters := o.Filters(); len(filters) > 0 {
				fmt.Fprintf(c.stdout, " filters=%s", strings.Join(filters, ","))
			}
			fmt.Fprintln(c.stdout)
		}
		switch {
		case aerr != nil:
			fmt.Fprintf(c.stdout, "%s  @ ERROR %v\n", indent, aerr)
		case len(attrs) > 0:
			fmt.Fprintf(c.stdout, "%s  @ %s\n", indent, strings.Join(attrs, ", "))
		}
		return nil
	})
}

func depth(p string) int {
	return len(hdf5.SplitPath(p))
}
