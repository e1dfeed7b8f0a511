package main

import (
	"os"

	"github.com/4Lajf/grafikonator-6000/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
