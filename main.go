package main

import "github.com/smarttype/smarttender/cmd"

func main() {
	cmd.Execute()
}
