package image

import (
	"fmt"
	"strings"

	"github.com/moby/buildkit/frontend/dockerfile/parser"
)

// Instruction is one parsed build-script instruction.
type Instruction struct {
	Command string   // lowercased, e.g. "copy"
	Flags   []string // e.g. --chmod=666
	Args    []string
}

var allowedInstructions = map[string]bool{
	"from":       true,
	"copy":       true,
	"label":      true,
	"env":        true,
	"entrypoint": true,
	"cmd":        true,
}

// Parse reads a rendered build script back with the buildkit Dockerfile
// parser.
func Parse(script string) ([]Instruction, error) {
	result, err := parser.Parse(strings.NewReader(script))
	if err != nil {
		return nil, fmt.Errorf("failed to parse build script: %w", err)
	}

	instructions := make([]Instruction, 0, len(result.AST.Children))
	for _, child := range result.AST.Children {
		instruction := Instruction{
			Command: strings.ToLower(child.Value),
			Flags:   child.Flags,
		}
		for n := child.Next; n != nil; n = n.Next {
			instruction.Args = append(instruction.Args, n.Value)
		}
		instructions = append(instructions, instruction)
	}
	return instructions, nil
}

// Validate checks that script parses and only uses the instructions Render
// emits, starting with FROM.
func Validate(script string) error {
	instructions, err := Parse(script)
	if err != nil {
		return err
	}
	if len(instructions) == 0 || instructions[0].Command != "from" {
		return fmt.Errorf("build script must start with FROM")
	}
	for _, instruction := range instructions {
		if !allowedInstructions[instruction.Command] {
			return fmt.Errorf("unexpected %s instruction in build script", strings.ToUpper(instruction.Command))
		}
	}
	return nil
}
