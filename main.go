package main

import "github.com/Mickjrp/E-Commerce-Analytics/cmd"

func main() {
	cmd.Execute()
}
