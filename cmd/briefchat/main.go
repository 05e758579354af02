// Command briefchat runs the brief assistant in a terminal against an
// in-memory session store.
package main

func main() {
	Execute()
}
