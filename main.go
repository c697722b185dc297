// Package main is the entry point of the bankflow CLI.
package main

import (
	"fmt"
	"os"

	"fjacquet/bankflow/cmd/classify"
	"fjacquet/bankflow/cmd/clearstore"
	"fjacquet/bankflow/cmd/correct"
	"fjacquet/bankflow/cmd/export"
	"fjacquet/bankflow/cmd/importcsv"
	"fjacquet/bankflow/cmd/patterns"
	"fjacquet/bankflow/cmd/recategorize"
	"fjacquet/bankflow/cmd/root"
	"fjacquet/bankflow/cmd/serve"
)

func init() {
	root.Init()

	root.Cmd.AddCommand(importcsv.Cmd)
	root.Cmd.AddCommand(classify.Cmd)
	root.Cmd.AddCommand(recategorize.Cmd)
	root.Cmd.AddCommand(correct.Cmd)
	root.Cmd.AddCommand(patterns.Cmd)
	root.Cmd.AddCommand(export.Cmd)
	root.Cmd.AddCommand(serve.Cmd)
	root.Cmd.AddCommand(clearstore.Cmd)
}

func main() {
	err := root.Cmd.Execute()
	if closeErr := root.Close(); closeErr != nil {
		fmt.Fprintln(os.Stderr, closeErr)
		if err == nil {
			os.Exit(1)
		}
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
