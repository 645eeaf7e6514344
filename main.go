package main

import "github.com/stackarr/stackarr/cmd"

func main() {
	cmd.Execute()
}
