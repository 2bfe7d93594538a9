package main

import (
	"pixeldesk/cmd"
)

func main() {
	cmd.Execute()
}
