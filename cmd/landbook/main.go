// Command landbook manages clients, parcels and debts from the terminal.
package main

import (
	"fmt"
	"os"

	"github.com/warp/landbook/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "landbook:", err)
		os.Exit(1)
	}
}
