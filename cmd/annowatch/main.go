// annowatch keeps rendered image overlays in sync with their JSON
// annotation records.
package main

import (
	"os"

	"github.com/hupe1980/annowatch/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
