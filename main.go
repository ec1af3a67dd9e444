package main

import "github.com/josephlewis42/gsh/cmd"

func main() {
	cmd.Execute()
}
