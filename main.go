package main

import "github.com/railwayapp/sloop/cmd/sloop"

func main() {
	sloop.Execute()
}
