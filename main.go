package main

import "github.com/pders01/ggr/cmd"

func main() {
	cmd.Execute()
}
