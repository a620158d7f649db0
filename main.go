package main

import "github.com/sheetdash/sheetdash/cmd"

func main() {
	cmd.Execute()
}
