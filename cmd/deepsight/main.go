package main

import "github.com/MeKo-Tech/deepsight/cmd/deepsight/cmd"

func main() {
	cmd.Execute()
}
