package main

import (
	"os"

	"horse.fit/dealsweep/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
