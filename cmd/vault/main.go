package main

import "github.com/benjaminbollen/MaidSafe-Vault-Manager/cli"

func main() {
	cli.Execute()
}
