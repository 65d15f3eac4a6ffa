package main

import "github.com/pders01/git-closest/cmd"

func main() {
	cmd.Execute()
}
