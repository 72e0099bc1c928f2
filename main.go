package main

import "github.com/KNIGHTABDO/zeroqcm-sub001/cmd"

func main() {
	cmd.Execute()
}
