// Command jiraictl is the operator tool: it checks configuration, mints
// development tokens and renders timelines from exported canvases.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
