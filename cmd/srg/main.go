package main

import "github.com/ogulcanaydogan/SafetyRing/internal/cli"

func main() {
	cli.Execute()
}
