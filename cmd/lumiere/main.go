// Command lumiere serves the talking-objects wearable experience and the
// image-to-video animation tool.
package main

import (
	"os"

	"github.com/teslashibe/go-lumiere/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
