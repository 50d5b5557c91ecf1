package main

import (
	"context"
	"os"
	"syscall"

	"github.com/binary-install/shassemble/cmd"
	"github.com/charmbracelet/fang"
)

var (
	// Version and Commit are set during build
	version = "dev"
	commit  = "none"
)

func main() {
	if err := fang.Execute(
		context.Background(),
		cmd.NewRootCommand(),
		fang.WithVersion(version),
		fang.WithCommit(commit),
		fang.WithNotifySignal(syscall.SIGINT, syscall.SIGTERM),
	); err != nil {
		os.Exit(1)
	}
}
