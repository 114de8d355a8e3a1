package main

import (
	"log"

	"github.com/thiagokokada/gitstatic/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitstatic: %v", err)
	}
}
