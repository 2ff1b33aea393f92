package main

import "github.com/llehouerou/tapdeck/internal/cli"

func main() {
	cli.Execute()
}
