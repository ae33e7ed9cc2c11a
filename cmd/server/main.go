package main

import "github.com/fsp-platform/server/cmd/server/cmd"

func main() {
	cmd.Execute()
}
