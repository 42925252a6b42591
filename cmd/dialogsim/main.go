package main

import (
	"errors"
	"fmt"
	"os"
)

// Exit codes for different failure modes
const (
	ExitSuccess     = 0 // Batch completed, all conversations finished
	ExitRunDegraded = 1 // Batch completed with failed conversations
	ExitError       = 2 // Configuration or runtime error
)

// DegradedRunError indicates the batch ran to completion but one or more
// conversations failed on the wire.
type DegradedRunError struct {
	Message string
}

func (e *DegradedRunError) Error() string {
	return e.Message
}

func main() {
	if err := execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)

		var degraded *DegradedRunError
		if errors.As(err, &degraded) {
			os.Exit(ExitRunDegraded)
		}

		os.Exit(ExitError)
	}
}
