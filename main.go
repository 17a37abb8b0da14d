package main

import "github.com/castlebridge/go-cryptobackend/cmd"

func main() {
	cmd.Execute()
}
