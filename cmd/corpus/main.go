// Command corpus is the CLI front end for the corpus snapshot store.
package main

import "github.com/f0rbit/corpus/cmd"

func main() {
	cmd.Execute()
}
