package main

import "github.com/nikogura/profile-highlights/cmd"

func main() {
	cmd.Execute()
}
