package main

import "github.com/andresmejia3/facebridge/cmd"

func main() {
	cmd.Execute()
}
