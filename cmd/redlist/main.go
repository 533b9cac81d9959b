package main

import "github.com/listkit/redlist/cmd/redlist/cmd"

func main() {
	cmd.Execute()
}
