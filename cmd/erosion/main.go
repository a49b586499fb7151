package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/ppiankov/erosion/internal/cli"
	"github.com/ppiankov/erosion/internal/model"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}
