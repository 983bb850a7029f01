// Command cdsstress runs the cds containers under concurrent load and
// reports whether their locking and lifecycle properties held.
package main

func main() {
	Execute()
}
