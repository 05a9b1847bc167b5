package main

import "github.com/officeforge/vbasync/cmd"

func main() {
	cmd.Execute()
}
