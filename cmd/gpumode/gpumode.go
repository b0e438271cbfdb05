package main

import (
	"RogCtl/internal/gpumode"
)

func main() {
	gpumode.ParseCmdArgs()
}
