package main

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/cljwlang/cljw/internal/ast"
	"github.com/cljwlang/cljw/internal/bootstrap"
	"github.com/cljwlang/cljw/internal/bytecode"
	"github.com/cljwlang/cljw/internal/value"
)

// dumpBytecodeOf reads every top-level form out of src, analyzes and
// compiles each to bytecode, and prints the disassembly as YAML.
func dumpBytecodeOf(rtm *bootstrap.Runtime, src string) error {
	forms, err := readAllForms(src, rtm.Env.Current.Name)
	if err != nil {
		return err
	}

	type chunkDump struct {
		Form         string                `yaml:"form"`
		Instructions []bytecode.Instruction `yaml:"instructions"`
	}
	var dumps []chunkDump

	for _, form := range forms {
		node, _, err := rtm.Analyzer.Analyze(form)
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}
		chunk, err := bytecode.Compile([]ast.Node{node}, rtm.Env)
		if err != nil {
			return fmt.Errorf("compile: %w", err)
		}
		dumps = append(dumps, chunkDump{
			Form:         formString(form),
			Instructions: bytecode.Disassemble(chunk),
		})
	}

	out, err := yaml.Marshal(dumps)
	if err != nil {
		return err
	}
	fmt.Print(string(out))
	return nil
}

func formString(form value.Value) string {
	return value.PrStr(form)
}
