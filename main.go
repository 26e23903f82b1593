package main

import "github.com/jsphweid/chartview/cmd"

func main() {
	cmd.Execute()
}
