// Package emitter walks the AST the parser produced and lowers it to
// Intel-syntax x86-64 assembly using a stack-machine model: every
// expression-producing node pushes its single result, every binary
// consumer pops two operands. No register allocation is attempted; this
// is the simplest correct scheme.
package emitter

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"github.com/mi-wada/kanic/ast"
	"github.com/mi-wada/kanic/diagnostic"
)

const preamble = `.intel_syntax noprefix
.globl main

main:
        push rbp
        mov rbp, rsp
        sub rsp, %d
`

// Emitter is pure over the AST and frame size it's handed; it carries no
// state beyond nesting-depth bookkeeping for --debug tracing.
type Emitter struct {
	debug  bool
	logger zerolog.Logger
	labels *labelStack
}

// New creates an Emitter. logger is only written to when debug is true.
func New(debug bool, logger zerolog.Logger) *Emitter {
	return &Emitter{debug: debug, logger: logger, labels: newLabelStack()}
}

// Emit lowers stmts to a complete assembly listing: the fixed preamble
// sized by frameSize, followed by each statement's code in order. There
// is no implicit epilogue; reaching a Ret is the expected termination.
func (e *Emitter) Emit(stmts []ast.Node, frameSize int) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, preamble, frameSize)
	if e.debug {
		b.WriteString("        int3\n")
	}

	for _, stmt := range stmts {
		if err := e.emitNode(&b, stmt); err != nil {
			return "", err
		}
	}

	return b.String(), nil
}

func (e *Emitter) emitNode(b *strings.Builder, node ast.Node) error {
	switch n := node.(type) {
	case *ast.Num:
		fmt.Fprintf(b, "        push %d\n", n.Value)
		return nil

	case *ast.LocalVar:
		fmt.Fprintf(b, "        push [rbp-%d]\n", n.Offset)
		return nil

	case *ast.ArithOp:
		return e.emitArithOp(b, n)

	case *ast.CmpOp:
		return e.emitCmpOp(b, n)

	case *ast.Ret:
		if err := e.emitNode(b, n.Value); err != nil {
			return err
		}
		b.WriteString("        pop rax\n        mov rsp, rbp\n        pop rbp\n        ret\n")
		return nil

	case *ast.If:
		return e.emitIf(b, n)

	case *ast.While:
		return e.emitWhile(b, n)

	case *ast.For:
		return e.emitFor(b, n)

	default:
		// ast.Node's isNode method is unexported, so no type outside the
		// ast package can implement it; this is unreachable in practice
		// and kept only so adding a node kind without a case here fails
		// loudly instead of silently emitting nothing.
		return diagnostic.NewInternal("emitter observed an unhandled node type %T", node)
	}
}

func (e *Emitter) emitArithOp(b *strings.Builder, n *ast.ArithOp) error {
	if n.Op == ast.Assign {
		local, ok := n.Lhs.(*ast.LocalVar)
		if !ok {
			return diagnostic.NewInternal("assignment lhs is %T, not a local variable", n.Lhs)
		}
		if err := e.emitNode(b, n.Rhs); err != nil {
			return err
		}
		fmt.Fprintf(b, "        pop rax\n        mov [rbp-%d], rax\n        push rax\n", local.Offset)
		return nil
	}

	if err := e.emitNode(b, n.Lhs); err != nil {
		return err
	}
	if err := e.emitNode(b, n.Rhs); err != nil {
		return err
	}

	if n.Op == ast.Div {
		b.WriteString("        pop rdi\n        pop rax\n        cqo\n        idiv rdi\n        push rax\n")
		return nil
	}

	fmt.Fprintf(b, "        pop rdi\n        pop rax\n        %s rax, rdi\n        push rax\n", n.Op.Mnemonic())
	return nil
}

func (e *Emitter) emitCmpOp(b *strings.Builder, n *ast.CmpOp) error {
	if err := e.emitNode(b, n.Lhs); err != nil {
		return err
	}
	if err := e.emitNode(b, n.Rhs); err != nil {
		return err
	}

	fmt.Fprintf(b,
		"        pop rdi\n        pop rax\n        cmp rax, rdi\n        %s al\n        movzb rax, al\n        push rax\n",
		n.Op.Mnemonic())
	return nil
}

func (e *Emitter) emitIf(b *strings.Builder, n *ast.If) (err error) {
	e.labels.push(n.Label)
	defer func() { err = e.leaveLabel(n.Label, err) }()

	if e.debug {
		e.logger.Debug().Str("label", n.Label).Int("depth", e.labels.depth()).Msg("emitting if")
	}

	if err := e.emitNode(b, n.Cond); err != nil {
		return err
	}
	fmt.Fprintf(b, "        pop rax\n        cmp rax, 0\n        je %s\n", n.Label)

	if err := e.emitNode(b, n.Then); err != nil {
		return err
	}
	fmt.Fprintf(b, "%s:\n", n.Label)

	if n.Else != nil {
		if err := e.emitNode(b, n.Else); err != nil {
			return err
		}
	}

	return nil
}

func (e *Emitter) emitWhile(b *strings.Builder, n *ast.While) (err error) {
	e.labels.push(n.StartLabel)
	defer func() { err = e.leaveLabel(n.StartLabel, err) }()

	if e.debug {
		e.logger.Debug().Str("start", n.StartLabel).Str("end", n.EndLabel).Msg("emitting while")
	}

	fmt.Fprintf(b, "%s:\n", n.StartLabel)
	if err := e.emitNode(b, n.Cond); err != nil {
		return err
	}
	fmt.Fprintf(b, "        pop rax\n        cmp rax, 0\n        je %s\n", n.EndLabel)

	if err := e.emitNode(b, n.Body); err != nil {
		return err
	}
	fmt.Fprintf(b, "        jmp %s\n%s:\n", n.StartLabel, n.EndLabel)

	return nil
}

// emitFor emits, in order: init, head label, condition test, update,
// body, jump back. The update running before the body (rather than
// after, as in ordinary C) is intentional, not an oversight.
func (e *Emitter) emitFor(b *strings.Builder, n *ast.For) (err error) {
	e.labels.push(n.StartLabel)
	defer func() { err = e.leaveLabel(n.StartLabel, err) }()

	if e.debug {
		e.logger.Debug().Str("start", n.StartLabel).Str("end", n.EndLabel).Msg("emitting for")
	}

	if n.Init != nil {
		if err := e.emitNode(b, n.Init); err != nil {
			return err
		}
	}

	fmt.Fprintf(b, "%s:\n", n.StartLabel)

	if n.Cond != nil {
		if err := e.emitNode(b, n.Cond); err != nil {
			return err
		}
	} else {
		b.WriteString("        push 1\n")
	}
	fmt.Fprintf(b, "        pop rax\n        cmp rax, 0\n        je %s\n", n.EndLabel)

	if n.Update != nil {
		if err := e.emitNode(b, n.Update); err != nil {
			return err
		}
	}

	if err := e.emitNode(b, n.Body); err != nil {
		return err
	}
	fmt.Fprintf(b, "        jmp %s\n%s:\n", n.StartLabel, n.EndLabel)

	return nil
}

// leaveLabel pops the label stack on the way out of an If/While/For and
// checks the popped label matches what this call pushed. If prior is a
// non-nil error from the body, it takes precedence; otherwise a stack
// mismatch becomes an internal error instead of passing silently.
func (e *Emitter) leaveLabel(label string, prior error) error {
	popped, ok := e.labels.pop()
	if prior != nil {
		return prior
	}
	if !ok || popped != label {
		return diagnostic.NewInternal("label stack imbalance: expected to pop %q, got %q (ok=%v)", label, popped, ok)
	}
	return nil
}
