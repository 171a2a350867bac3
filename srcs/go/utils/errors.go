package utils

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

var exit = os.Exit

// ExitErr terminates the process with status 1.
func ExitErr(err error) {
	fmt.Fprintf(os.Stderr, "exit on error: %v\n", err)
	exit(1)
}

func MergeErrors(errs []error, hint string) error {
	var msg string
	var failed int
	for _, e := range errs {
		if e != nil {
			failed++
			if len(msg) > 0 {
				msg += ", "
			}
			msg += e.Error()
		}
	}
	if failed == 0 {
		return nil
	}
	return errors.Errorf("%s failed with %s: %s", hint, Pluralize(failed, "error", "errors"), msg)
}
