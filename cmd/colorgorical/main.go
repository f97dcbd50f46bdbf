// colorgorical builds and scores categorical color palettes.
package main

import (
	"os"

	"github.com/wethinkt/go-colorgorical/internal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
