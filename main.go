package main

import (
	"log"

	"github.com/thiagokokada/gitsync-go/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("gitsync: %v", err)
	}
}
