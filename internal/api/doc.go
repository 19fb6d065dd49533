// Package api exposes the configuration and statistics surface over HTTP:
// credential file management, strategy selection, slot enable/disable, and
// aggregate statistics. It is a thin request/response mapping over the core
// components and holds no state of its own.
package api
