// Command tinycms keeps customer and invoice records in a local snapshot file.
package main

import (
	"os"

	"github.com/roach88/tinycms/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
