package main

import "github.com/sfdaemon/dapi/cmd"

func main() {
	cmd.Execute()
}
