package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"StockStats/internal/cli"
)

func main() {
	root := cli.NewRootCmd(os.Stdout, nil)
	if err := root.ExecuteContext(context.Background()); err != nil {
		if !errors.Is(err, cli.ErrStatsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
