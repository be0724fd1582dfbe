package main

import "matrixci/engine/cmd"

func main() {
	cmd.Execute()
}
