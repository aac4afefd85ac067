package main // Entry point package

import (
	"context"
	"fmt"
	"os"

	"github.com/iliyamo/charter-booking/internal/cli"
)

func main() {
	if err := cli.NewRoot().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
