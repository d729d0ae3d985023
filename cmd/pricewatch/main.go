package main

import (
	"price-history-engine/internal/cli"
)

func main() {
	cli.Execute()
}
