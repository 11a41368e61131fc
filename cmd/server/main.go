package main

import "github.com/gatherpoint/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
