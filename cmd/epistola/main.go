package main

import "github.com/MeKo-Tech/epistola/cmd/epistola/cmd"

func main() {
	cmd.Execute()
}
