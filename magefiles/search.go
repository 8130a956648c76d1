//go:build mage

package main

import (
	"fmt"
	"path/filepath"

	"github.com/magefile/mage/mg"
)

// Search builds the CLI and runs one query through it, saving the result
// set under results/ so it can be re-rendered with "grounded-search render".
func Search(query string) error {
	mg.Deps(Build)
	out := filepath.Join("results", "latest.yaml")
	if err := run(filepath.Join(binDir, binName), "search", "--format", "table", "--save", out, query); err != nil {
		return err
	}
	fmt.Println("Saved", out)
	return nil
}

// Render prints the last saved result set as Markdown.
func Render() error {
	return run(filepath.Join(binDir, binName), "render", filepath.Join("results", "latest.yaml"))
}
