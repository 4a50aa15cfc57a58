package main

import "propdesk/internal/cli"

func main() {
	cli.Execute()
}
