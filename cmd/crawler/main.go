package main

import (
	"context"
	"fmt"
	"os"

	"github.com/honeycarbs/vacancy-crawler/internal/cli"
)

// version is set at build time via ldflags
var version = "dev"

func main() {
	if err := cli.Execute(context.Background(), version); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+cli.Message(err))
		os.Exit(1)
	}
}
