package main

import (
	"ocm.software/open-component-model/presentation/internal/cmd"
)

func main() {
	cmd.Execute()
}
