package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/robert-malhotra/h5shard/shard"
)

func newLsCommand(c *cli) *cobra.Command {
	var fileIndex int
	cmd := &cobra.Command{
		Use:   "ls [group]",
		Short: "List the entries of a group.",
		Long: `Lists the children of a group, the root by default, in one file of
the set. The first file is used unless --file-index says otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			group := "/"
			if len(args) == 1 {
				group = args[0]
			}
			return c.withReader(func(r *shard.Reader) error {
				names, err := r.ListEntries(group, fileIndex)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(c.stdout, name)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&fileIndex, "file-index", "i", 0, "Index of the file to inspect.")
	return cmd
}

func newAttrsCommand(c *cli) *cobra.Command {
	var fileIndex int
	cmd := &cobra.Command{
		Use:   "attrs <object>",
		Short: "List the attributes of a group or dataset.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withReader(func(r *shard.Reader) error {
				names, err := r.ListAttributes(args[0], fileIndex)
				if err != nil {
					return err
				}
				for _, name := range names {
					fmt.Fprintln(c.stdout, name)
				}
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&fileIndex, "file-index", "i", 0, "Index of the file to inspect.")
	return cmd
}

func newAttrCommand(c *cli) *cobra.Command {
	var (
		fileIndex int
		asJSON    bool
	)
	cmd := &cobra.Command{
		Use:   "attr <object> <name>",
		Short: "Print one attribute value.",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withReader(func(r *shard.Reader) error {
				v, err := r.GetAttribute(args[0], args[1], fileIndex)
				if err != nil {
					return err
				}
				if asJSON {
					return c.writeJSON(v)
				}
				fmt.Fprintln(c.stdout, v)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&fileIndex, "file-index", "i", 0, "Index of the file to inspect.")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the value as JSON.")
	return cmd
}
