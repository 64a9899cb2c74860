//go:build mage

// Package main contains Mage build targets for candidate-evaluator.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir  = "bin"
	binName = "candidate-evaluator"
)

// Build compiles the CLI binary into bin/. VERSION overrides the reported version.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}

	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}

	out := filepath.Join(binDir, binName)
	ldflags := fmt.Sprintf("-X github.com/spigell/candidate-evaluator/cmd.version=%s", version)
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, "."); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// All lints, tests and builds.
func All() {
	mg.SerialDeps(Lint, Test, Build)
}

// Clean removes build output.
func Clean() error {
	return sh.Rm(binDir)
}
