package main

import "github.com/brogergvhs/pagetidy/cmd"

func main() {
	cmd.Execute()
}
