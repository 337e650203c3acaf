package main

import (
	"github.com/chrisuehlinger/stylecore/cmd"
)

func main() {
	cmd.Execute()
}
