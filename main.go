package main

import "github.com/djcass44/rules-deb/cmd"

var version = "devel"

func main() {
	cmd.Execute(version)
}
