package main

import "github.com/citymesh/meshsched/cmd"

func main() {
	cmd.Execute()
}
