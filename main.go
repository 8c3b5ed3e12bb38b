package main

import (
	"os"

	"github.com/jobhound/jobhound/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
