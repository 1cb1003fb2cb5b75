package main

import "screenerdash/cli"

func main() {
	cli.Execute()
}
