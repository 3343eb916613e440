// Package compile turns ordered asset sources into one combined text blob.
//
// Sources whose extension has a registered Compiler (CoffeeScript and LESS by
// default) are translated first, then minified unless the file name carries
// a pre-compressed marker, then concatenated in the order given.
package compile

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// ErrToolNotFound is returned when a command compiler's tool is not on PATH.
var ErrToolNotFound = errors.New("compiler tool not found")

// Compiler translates one source language into the kind's output language.
type Compiler interface {
	// Ext is the handled extension without the dot, for example "coffee".
	Ext() string
	Compile(ctx context.Context, w io.Writer, r io.Reader) error
}

type compilerFunc struct {
	ext string
	fn  func(ctx context.Context, w io.Writer, r io.Reader) error
}

func (c compilerFunc) Ext() string { return c.ext }

func (c compilerFunc) Compile(ctx context.Context, w io.Writer, r io.Reader) error {
	return c.fn(ctx, w, r)
}

// CompilerFunc adapts a function to the Compiler interface.
func CompilerFunc(ext string, fn func(ctx context.Context, w io.Writer, r io.Reader) error) Compiler {
	return compilerFunc{ext: normalizeExt(ext), fn: fn}
}

// CommandCompiler pipes sources through an external program.
type CommandCompiler struct {
	ext  string
	tool string
	args []string
	// lookPath is swapped in tests.
	lookPath func(string) (string, error)
}

// NewCommandCompiler creates a compiler running tool with args, feeding the
// source on stdin and reading the result from stdout.
func NewCommandCompiler(ext, tool string, args ...string) *CommandCompiler {
	return &CommandCompiler{
		ext:      normalizeExt(ext),
		tool:     tool,
		args:     args,
		lookPath: exec.LookPath,
	}
}

// Coffee compiles CoffeeScript with the coffee command.
func Coffee() *CommandCompiler {
	return NewCommandCompiler("coffee", "coffee", "-sc")
}

// Less compiles LESS with the lessc command.
func Less() *CommandCompiler {
	return NewCommandCompiler("less", "lessc", "-")
}

// Ext implements Compiler.
func (c *CommandCompiler) Ext() string { return c.ext }

// Tool returns the program name.
func (c *CommandCompiler) Tool() string { return c.tool }

// Compile implements Compiler.
func (c *CommandCompiler) Compile(ctx context.Context, w io.Writer, r io.Reader) error {
	toolPath, err := c.lookPath(c.tool)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrToolNotFound, c.tool)
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, toolPath, c.args...)
	cmd.Stdin = r
	cmd.Stdout = w
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%s: %w: %s", c.tool, err, msg)
		}
		return fmt.Errorf("%s: %w", c.tool, err)
	}

	return nil
}

func normalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
