package main

import "github.com/bitesync/bitesync/cmd"

func main() {
	cmd.Execute()
}
