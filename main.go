package main

import "github.com/rickardevertsson123/choir-practice-tool-sub000/cmd"

func main() {
	cmd.Execute()
}
