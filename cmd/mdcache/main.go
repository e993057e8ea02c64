package main

import "mdcache/internal/cli"

func main() {
	cli.Execute()
}
