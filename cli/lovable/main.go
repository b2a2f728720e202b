package main

import (
	"os"

	lovablecmder "github.com/MikaNatus/open-lovable/cmd/lovable"
)

func main() {
	cmd := lovablecmder.NewLovableCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
