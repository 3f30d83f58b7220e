package main

import "github.com/mabhi256/gclens/cmd"

func main() {
	cmd.Execute()
}
