// Package main provides the assetpatch command-line tool.
package main

import (
	"github.com/heisthecat31/assetpatch/internal"
	"github.com/heisthecat31/assetpatch/internal/config"
)

func init() {
	config.InitConfig()
	config.InitViper()
	internal.InitLogging()
}

func main() {
	Execute()
}
