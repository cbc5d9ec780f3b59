package main

import "github.com/LeJamon/goStorageRent/internal/cli"

func main() {
	cli.Execute()
}
