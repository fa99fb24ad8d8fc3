package main

import (
	"log"

	"github.com/ca-srg/minisearch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
