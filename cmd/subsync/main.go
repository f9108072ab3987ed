package main

import "subsync/internal/cmd"

func main() {
	cmd.Execute()
}
