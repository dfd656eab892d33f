// Command rubix queries a Rubix ML inference server from the shell.
//
// Usage:
//
//	rubix predict --samples samples.json
//	rubix proba --host 10.0.0.5 --port 8080 < samples.json
//	RUBIX_TOKEN=secret rubix score --config rubix.yaml --samples -
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd(os.Stdin, os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Command failed: %v\n", err)
		os.Exit(1)
	}
}
