package main

import "github.com/naka-gawa/github-devlog/cmd"

func main() {
	cmd.Execute()
}
