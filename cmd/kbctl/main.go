// Command kbctl maintains the coach knowledge base from the shell.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
