// Command api serves the Lune REST API.
package main

func main() {
	startWithDig()
}
