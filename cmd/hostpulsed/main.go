package main

import (
	"os"

	"github.com/NVIDIA/hostpulse/pkg/api"
)

func main() {
	if err := api.Serve(); err != nil {
		os.Exit(1)
	}
}
