package main

import "github.com/kanbanhq/board-management/cmd"

func main() {
	cmd.Execute()
}
