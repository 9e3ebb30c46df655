// fusadocs: ISO 26262 functional safety documentation MCP server.
//
// An MCP server that any MCP-capable assistant can drive to turn its
// generated HARA tables, functional safety requirements, allocations and
// reviews into validated records and Excel or Markdown work products.
//
// Usage:
//
//	fusadocs serve                                   # Start MCP server (stdio transport)
//	fusadocs export --kind fsc --input brake.yaml    # Build a document from a snapshot
//	fusadocs snapshot <session-id>                   # Dump a session as YAML
//	fusadocs version --check                         # Print version, look for a newer release
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
