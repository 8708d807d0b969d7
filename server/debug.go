package server

import (
	"os"
)

var (
	debugLog bool
)

func init() {
	if os.Getenv("FIXMEM_DEBUG") == "1" {
		debugLog = true
	}
}
