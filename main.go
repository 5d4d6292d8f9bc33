package main

import "github.com/inovacc/tsdctl/cmd"

func main() {
	cmd.Execute()
}
