package main

import "chordviz/cmd"

func main() {
	cmd.Execute()
}
