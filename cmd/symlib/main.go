package main

import "github.com/OpenTraceLab/symlib/cmd/symlib/cmd"

func main() {
	cmd.Execute()
}
