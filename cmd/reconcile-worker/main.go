package main

import (
	"os"

	"github.com/azuresphere7/DWQ-Legal-Backend/reconcileworker"
)

func main() {
	if err := reconcileworker.Run(); err != nil {
		os.Exit(1)
	}
}
