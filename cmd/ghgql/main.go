package main

import (
	"os"

	"github.com/gqlmod/ghgraphql/cmd/ghgql/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
