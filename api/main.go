package main

import (
	"github.com/feedwire/feedwire/api/cmd/feedwire"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	feedwire.Execute()
}
