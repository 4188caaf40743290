package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	vbcmd "vidbatch/internal/cli/cmd"
)

func main() {
	// VIDBATCH_* settings may live in a .env file next to the links file.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := vbcmd.Execute(ctx); err != nil {
		var ee *vbcmd.ExitError
		if errors.As(err, &ee) {
			if ee.Err != nil {
				fmt.Fprintln(os.Stderr, ee.Err)
			}
			os.Exit(ee.Code)
		}
		fmt.Fprintln(os.Stderr, err)
		os.Exit(vbcmd.ExitCLIError)
	}
	os.Exit(vbcmd.ExitOK)
}
