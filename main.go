package main

import "github.com/KaramelBytes/spedgrowth-cli/cmd"

func main() {
	cmd.Execute()
}
