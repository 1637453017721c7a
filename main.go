package main

import (
	"github.com/hermit-shells/hermit/cmd/hermit"
	"github.com/joho/godotenv"
)

func main() {
	// A missing .env is the normal case.
	_ = godotenv.Load()
	hermit.Execute()
}
