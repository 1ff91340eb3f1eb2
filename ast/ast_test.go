package ast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestArithOpMnemonic(t *testing.T) {
	tests := map[ArithOpKind]string{
		Add:    "add",
		Sub:    "sub",
		Mul:    "imul",
		Div:    "idiv",
		Assign: "mov",
	}

	for op, want := range tests {
		assert.Equal(t, want, op.Mnemonic())
	}
}

func TestCmpOpMnemonic(t *testing.T) {
	tests := map[CmpOpKind]string{
		Lt:  "setl",
		Lte: "setle",
		Eq:  "sete",
		Neq: "setne",
	}

	for op, want := range tests {
		assert.Equal(t, want, op.Mnemonic())
	}
}

func TestNodesSatisfyInterface(t *testing.T) {
	var nodes = []Node{
		&Num{Value: 1},
		&LocalVar{Offset: 8},
		&ArithOp{Op: Add, Lhs: &Num{Value: 1}, Rhs: &Num{Value: 2}},
		&CmpOp{Op: Lt, Lhs: &Num{Value: 1}, Rhs: &Num{Value: 2}},
		&Ret{Value: &Num{Value: 0}},
		&If{Label: ".L0", Cond: &Num{Value: 1}, Then: &Ret{Value: &Num{Value: 1}}},
		&While{StartLabel: ".L0", EndLabel: ".L1", Cond: &Num{Value: 1}, Body: &Ret{Value: &Num{Value: 1}}},
		&For{StartLabel: ".L0", EndLabel: ".L1", Body: &Ret{Value: &Num{Value: 1}}},
	}

	assert.Len(t, nodes, 8)
}
