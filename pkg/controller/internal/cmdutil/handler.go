/*
Copyright SecureKey Technologies Inc. All Rights Reserved.

SPDX-License-Identifier: Apache-2.0
*/

// Package cmdutil builds the REST routes and controller commands of the registry. Each one knows whether it
// publishes to the registry, so read-only mirrors can leave it out.
package cmdutil

import (
	"net/http"

	"github.com/hyperledger/aries-framework-go/component/anoncreds/pkg/controller/command"
)

// Route is a REST endpoint.
type Route struct {
	path      string
	method    string
	handle    http.HandlerFunc
	publishes bool
}

// Lookup serves GET requests on path.
func Lookup(path string, handle http.HandlerFunc) *Route {
	return &Route{path: path, method: http.MethodGet, handle: handle}
}

// Publication serves requests on path that write to the registry.
func Publication(path, method string, handle http.HandlerFunc) *Route {
	return &Route{path: path, method: method, handle: handle, publishes: true}
}

// Path of the route.
func (r *Route) Path() string { return r.path }

// Method is the HTTP method the route answers.
func (r *Route) Method() string { return r.method }

// Handle returns the route's handler.
func (r *Route) Handle() http.HandlerFunc { return r.handle }

// Publishes reports whether the route writes to the registry.
func (r *Route) Publishes() bool { return r.publishes }

// Command is one method of a controller command.
type Command struct {
	name      string
	method    string
	exec      command.Exec
	publishes bool
}

// LookupCommand is a read-only method of command name.
func LookupCommand(name, method string, exec command.Exec) *Command {
	return &Command{name: name, method: method, exec: exec}
}

// PublicationCommand is a method of command name that writes to the registry.
func PublicationCommand(name, method string, exec command.Exec) *Command {
	return &Command{name: name, method: method, exec: exec, publishes: true}
}

// Name of the command.
func (c *Command) Name() string { return c.name }

// Method of the command.
func (c *Command) Method() string { return c.method }

// Handle returns the method's execute function.
func (c *Command) Handle() command.Exec { return c.exec }

// Publishes reports whether the method writes to the registry.
func (c *Command) Publishes() bool { return c.publishes }
