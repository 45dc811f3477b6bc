package main

import (
	"log"

	"github.com/psds-microservice/workflow-service/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
