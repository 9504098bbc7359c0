package main

import (
	"os"

	"github.com/JamesWuHK/demo-video-generator/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
