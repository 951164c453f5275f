package main

import (
	"os"

	"github.com/folhapay/remittance/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
