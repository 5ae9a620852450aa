package main

import "github.com/Sonath21/spotify-controls/internal/cli"

func main() {
	cli.Execute()
}
