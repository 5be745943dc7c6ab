package main

import "github.com/hookscope/hookscope/cmd"

func main() {
	cmd.Execute()
}
