package main

import "github.com/KaramelBytes/reviewloom-cli/cmd"

func main() {
	cmd.Execute()
}
