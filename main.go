package main

import (
	"fmt"
	"os"

	"github.com/gerunddev/blockbridge/internal/commands"
	"github.com/gerunddev/blockbridge/internal/styles"
)

var version = "0.1.0"

func main() {
	if err := commands.Execute(version); err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render("✗ Error: "+err.Error()))
		os.Exit(1)
	}
}
