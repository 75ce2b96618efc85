package main

import "stopro/roster/cmd"

func main() {
	cmd.Execute()
}
