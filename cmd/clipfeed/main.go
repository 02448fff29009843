package main

import "github.com/forPelevin/clipfeed/internal/cli"

func main() {
	cli.Main()
}
