/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>

*/
package main

import "github.com/neekunjshah/petty-cash/cmd"

func main() {
	cmd.Execute()
}
