package main

import (
	"os"

	"github.com/conduit-lang/metamodel/examples/todo"
	"github.com/conduit-lang/metamodel/internal/cli/commands"
)

func main() {
	if err := commands.Execute(todo.Types()...); err != nil {
		os.Exit(1)
	}
}
