// Command minicjs boots the main script of a zip-packed module store.
package main

func main() {
	Execute()
}
