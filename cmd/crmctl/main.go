package main

import "go-crm-core/cmd/crmctl/cli"

func main() {
	cli.Execute()
}
