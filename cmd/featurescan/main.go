package main

import "github.com/mvp-joe/featurescan/internal/cli"

func main() {
	cli.Execute()
}
