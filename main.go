package main

import (
	"os"

	"github.com/llehouerou/nowplaying/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
