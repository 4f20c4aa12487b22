package main

import (
	"log"

	"github.com/scmkit/scmkit/cmd"
)

func main() {
	if err := cmd.Run(); err != nil {
		log.Fatalf("scmkit: %v", err)
	}
}
