package config_test

import (
	"fmt"

	"github.com/wonny/livermore/pkg/config"
)

// Example demonstrates how to use the config package
func Example() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		return
	}

	fmt.Printf("Provider: %s\n", cfg.Provider)
	fmt.Printf("Workers: %d\n", cfg.Scan.Workers)
	fmt.Printf("Output: %s\n", cfg.Scan.OutputDir)
}
