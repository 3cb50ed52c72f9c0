// main is the entry point of the coursekit CLI.
package main

import (
	"fmt"
	"os"

	"github.com/coursekit/coursekit/cmd"
	"github.com/coursekit/coursekit/internal/iocache"
)

func main() {
	defer iocache.CloseStores()

	if err := cmd.Execute(); err != nil {
		iocache.CloseStores()
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
