package main

import "github.com/t184256/autosync-voice/cmd"

func main() {
	cmd.Execute()
}
