package main

import "beeb/cmd"

func main() {
	cmd.Execute()
}
