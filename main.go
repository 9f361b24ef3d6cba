package main

import "github.com/frahmantamala/opentna/cmd"

func main() {
	cmd.Execute()
}
