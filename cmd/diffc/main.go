// cmd/diffc/main.go - Command-line differentiator
//
// Usage:
//
//	go run ./cmd/diffc diff model.txt --axis t --wrt t --stdout
//	go run ./cmd/diffc eval model.txt --axis t --at t=0.5 --wrt t
//	go run ./cmd/diffc emit tree.json --target latex --stdout
package main

import (
	"os"

	"github.com/njchilds90/progdiff/internal/cli"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}
