package main

import (
	"RogCtl/internal/fanctl"
)

func main() {
	fanctl.ParseCmdArgs()
}
