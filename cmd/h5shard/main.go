// Command h5shard reads datasets split across several HDF5 files.
package main

import (
	"fmt"
	"os"

	"github.com/robert-malhotra/h5shard/cmd"
)

func main() {
	rootCmd := cmd.NewRootCommand(os.Stdin, os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
