// Package main is the entry point of the monthrank CLI.
package main

import (
	"github.com/huangsam/monthrank/cmd"
	"github.com/huangsam/monthrank/internal/contract"
	"github.com/huangsam/monthrank/internal/iocache"
)

func main() {
	defer iocache.CloseStores()

	err := cmd.Execute()
	if stopErr := cmd.StopProfiling(); stopErr != nil {
		contract.LogWarn("Failed to stop profiling", stopErr)
	}
	if err != nil {
		iocache.CloseStores()
		contract.LogFatal("Cannot run monthrank", err)
	}
}
