package main

import (
	"fmt"
	"os"

	"alortrader/cmd/alor-trader/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
