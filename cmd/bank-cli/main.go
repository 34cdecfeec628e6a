// Copyright (C) 2024, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "bank-cli" creates a bank account for a local key and increases its
// balance against an on-disk account database.
package main

import (
	"os"

	"github.com/ava-labs/bankvm/cmd/bank-cli/cmd"
	"github.com/ava-labs/bankvm/utils"
)

func main() {
	if err := cmd.Execute(os.Args[1:]); err != nil {
		utils.Outf("{{red}}bank-cli exited with error:{{/}} %+v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
