/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package anoncreds-registry (Anoncreds Registry REST Server) of aries-framework-go.
//
//
// Terms Of Service:
//
//
//     Schemes: https
//     Version: 0.1.0
//     License: SPDX-License-Identifier: Apache-2.0
//
//     Consumes:
//     - application/json
//     - application/octet-stream
//
//     Produces:
//     - application/json
//     - application/octet-stream
//
// swagger:meta
package main

import (
	"github.com/hyperledger/aries-framework-go/component/log"
	"github.com/spf13/cobra"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/cmd/anoncreds-registry/startcmd"
)

// This is an application which serves an anoncreds registry on given port.
func main() {
	rootCmd := &cobra.Command{
		Use: "anoncreds-registry",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.HelpFunc()(cmd, args)
		},
	}

	logger := log.New("aries-framework/anoncreds-registry")

	startCmd, err := startcmd.Cmd(&startcmd.HTTPServer{})
	if err != nil {
		logger.Fatalf(err.Error())
	}

	rootCmd.AddCommand(startCmd)

	if err := rootCmd.Execute(); err != nil {
		logger.Fatalf("Failed to run anoncreds-registry: %s", err)
	}
}
