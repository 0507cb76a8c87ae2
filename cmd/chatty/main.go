package main

import "github.com/jooleearr/chatty-boxy/cmd/chatty/cmd"

func main() {
	cmd.Execute()
}
