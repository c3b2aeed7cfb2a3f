package main

import (
	"os"

	"github.com/promo-warden/promo-warden/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
