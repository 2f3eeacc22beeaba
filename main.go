package main

import "github.com/gaurav-prasanna/clausecheck/cmd"

func main() {
	cmd.Execute()
}
