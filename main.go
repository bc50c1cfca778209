package main

import "astromatic/cmd"

func main() {
	cmd.Execute()
}
