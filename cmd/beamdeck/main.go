package main

import "beamdeck/internal/cli"

func main() {
	cli.Execute()
}
