package main

import "github.com/forPelevin/clipcut/internal/cli"

func main() { cli.Main() }
