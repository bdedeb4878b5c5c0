package main

import "github.com/mergeguard/mergeguard/cmd/mergeguard"

func main() { mergeguard.Execute() }
