package main

import "github.com/mpapenbr/racebet/cmd"

func main() {
	cmd.Execute()
}
