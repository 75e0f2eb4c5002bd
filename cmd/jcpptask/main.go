package main

import "github.com/goplus/jcpptask/cmd/jcpptask/internal"

func main() {
	internal.Execute()
}
