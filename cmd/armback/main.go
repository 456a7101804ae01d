package main

import (
	"fmt"
	"os"

	"github.com/golang/glog"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		glog.Flush()
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
