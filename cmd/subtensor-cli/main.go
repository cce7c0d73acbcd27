// Copyright (C) 2023, Ava Labs, Inc. All rights reserved.
// See the file LICENSE for licensing terms.

// "subtensor-cli" drives a subtensor node through the e2e harness.
package main

import (
	"os"

	"github.com/opentensor/subtensor-js-tests-sub000/cmd/subtensor-cli/cmd"
	"github.com/opentensor/subtensor-js-tests-sub000/utils"
)

func main() {
	if err := cmd.Execute(); err != nil {
		utils.Outf("{{red}}subtensor-cli exited with error:{{/}} %+v\n", err)
		os.Exit(1)
	}
	os.Exit(0)
}
