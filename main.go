package main

import "jobprofit/cmd"

func main() {
	cmd.Execute()
}
