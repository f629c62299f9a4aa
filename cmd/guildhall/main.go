package main

import "github.com/kingrea/guildhall/cmd"

func main() {
	cmd.Execute()
}
