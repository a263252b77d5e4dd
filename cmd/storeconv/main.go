// storeconv converts world store files to YAML trees and back, so saves can
// be inspected and diffed with ordinary tools.
//
// Usage:
//
//	go run ./cmd/storeconv dump save/world.store world.yaml
//	go run ./cmd/storeconv build world.yaml save/world.store
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/l1jgo/worldcore/internal/store"
	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// YAML structures
// ---------------------------------------------------------------------------

// YAMLNode mirrors one store node. Absent name or payload are omitted.
type YAMLNode struct {
	Name     string     `yaml:"name,omitempty"`
	Payload  *string    `yaml:"payload,omitempty"`
	Children []YAMLNode `yaml:"children,omitempty"`
}

func toYAML(n *store.Node) YAMLNode {
	y := YAMLNode{Name: n.Name()}
	if p, ok := n.Payload(); ok {
		y.Payload = &p
	}
	for _, c := range n.Children() {
		y.Children = append(y.Children, toYAML(c))
	}
	return y
}

func fromYAML(y YAMLNode, n *store.Node) {
	if y.Payload != nil {
		n.SetPayload(*y.Payload)
	}
	for _, c := range y.Children {
		fromYAML(c, n.ChildSave(c.Name))
	}
}

// ---------------------------------------------------------------------------
// Main
// ---------------------------------------------------------------------------

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: storeconv dump|build <input> <output>")
		os.Exit(2)
	}
	mode, inputPath, outputPath := os.Args[1], os.Args[2], os.Args[3]

	var err error
	switch mode {
	case "dump":
		err = dump(inputPath, outputPath)
	case "build":
		err = build(inputPath, outputPath)
	default:
		err = fmt.Errorf("unknown mode %q", mode)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func dump(inputPath, outputPath string) error {
	root, err := store.OpenFromFile(inputPath)
	if err != nil {
		return err
	}
	defer root.Close()

	out, err := yaml.Marshal(toYAML(root))
	if err != nil {
		return fmt.Errorf("marshal YAML: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	header := fmt.Sprintf("# Store tree dumped from %s\n\n", filepath.Base(inputPath))
	if err := os.WriteFile(outputPath, append([]byte(header), out...), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", outputPath, err)
	}
	fmt.Printf("Wrote %d top-level sections to %s\n", root.ChildCount(), outputPath)
	return nil
}

func build(inputPath, outputPath string) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read %s: %w", inputPath, err)
	}
	var y YAMLNode
	if err := yaml.Unmarshal(raw, &y); err != nil {
		return fmt.Errorf("parse YAML: %w", err)
	}
	root := store.Open()
	defer root.Close()
	fromYAML(y, root)
	if err := root.WriteFile(outputPath); err != nil {
		return err
	}
	fmt.Printf("Wrote %d top-level sections to %s\n", root.ChildCount(), outputPath)
	return nil
}
