package main

import "github.com/NVIDIA/hostpulse/pkg/cli"

func main() {
	cli.Execute()
}
