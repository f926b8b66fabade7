/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package logutil writes controller command logs as command=[..] method=[..] key=[value] lines.
package logutil

import (
	"strings"

	"github.com/hyperledger/aries-framework-go/component/log"
)

// Field is one key=[value] pair of a log line.
type Field struct {
	Key   string
	Value string
}

// ID is the field naming the ledger object a command acted on.
func ID(id string) Field {
	return Field{Key: "id", Value: id}
}

// CommandLog logs the outcome of the methods of one controller command.
type CommandLog struct {
	logger  *log.Log
	command string
}

// ForCommand returns the log of command, written through logger.
func ForCommand(logger *log.Log, command string) *CommandLog {
	return &CommandLog{logger: logger, command: command}
}

// Rejected logs a request refused before it reached the ledger.
func (c *CommandLog) Rejected(method, reason string) {
	c.logger.Infof("%s", c.line(method, nil, "rejected", reason))
}

// Failed logs a request the ledger could not serve.
func (c *CommandLog) Failed(method string, err error, fields ...Field) {
	c.logger.Errorf("%s", c.line(method, fields, "error", err.Error()))
}

// Done logs a served request.
func (c *CommandLog) Done(method string, fields ...Field) {
	c.logger.Debugf("%s", c.line(method, fields, "", ""))
}

func (c *CommandLog) line(method string, fields []Field, outcome, detail string) string {
	var b strings.Builder

	b.WriteString("command=[" + c.command + "] method=[" + method + "]")

	for _, f := range fields {
		b.WriteString(" " + f.Key + "=[" + f.Value + "]")
	}

	if outcome != "" {
		b.WriteString(" " + outcome + "=[" + detail + "]")
	}

	return b.String()
}
