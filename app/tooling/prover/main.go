// This program queries block witnesses and headers and submits them to the
// gas price oracle contract.
package main

import "github.com/ardanlabs/blockwitness/app/tooling/prover/cmd"

func main() {
	cmd.Execute()
}
