package main

import (
	"github.com/siongui/goef"
)

// Generates resource_data_js.go, the js build's stand-in for embed.FS.
func main() {
	err := goef.GenerateGoPackage("resources", "../data",
		"../resource_data_js.go")
	if err != nil {
		panic(err)
	}
}
