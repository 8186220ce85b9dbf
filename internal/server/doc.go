// Package server implements the MCP (Model Context Protocol) server that
// exposes surface segmentation, texture generation, and the retexturing
// pipeline as tools over newline-delimited JSON-RPC.
//
// The transport is a plain io.Reader/io.Writer pair, stdio in production.
// Images travel inline as base64-encoded PNG; pipeline runs return their
// JSON run records, whose artifacts live on disk under the orchestrator's
// output directory.
package server
