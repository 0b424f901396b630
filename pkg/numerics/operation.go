// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package numerics

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
)

// OpCode identifies the kind of a tensor operation.
type OpCode int

const (
	// OpNoop does nothing.
	OpNoop OpCode = iota
	// OpCreate allocates storage for its output tensor.
	OpCreate
	// OpDestroy releases the storage of its output tensor.
	OpDestroy
	// OpTransform applies a unary transformation to its output tensor in place.
	OpTransform
	// OpSlice extracts a slice of the input tensor into the output tensor.
	OpSlice
	// OpInsert inserts the input tensor as a slice of the output tensor.
	OpInsert
	// OpAdd adds the input tensor into the output tensor.
	OpAdd
	// OpContract contracts two input tensors into the output tensor.
	OpContract
	// OpDecompose factorizes the input tensor into the output tensors.
	OpDecompose
)

var opCodeNames = [...]string{"NOOP", "CREATE", "DESTROY", "TRANSFORM", "SLICE",
	"INSERT", "ADD", "CONTRACT", "DECOMPOSE"}

// String implements fmt.Stringer.
func (c OpCode) String() string {
	if c < 0 || int(c) >= len(opCodeNames) {
		return fmt.Sprintf("OpCode(%d)", int(c))
	}
	return opCodeNames[c]
}

// TensorOperation is a formal numerical operation on one or more tensors:
// an opcode, an ordered list of tensor operands (position 0 is the output,
// subsequent positions are inputs) and an ordered list of scalar prefactors.
//
// An operation is built with the Set* mutators and becomes logically immutable
// once submitted to a tensor graph. IsSet reports completeness.
type TensorOperation struct {
	opcode      OpCode
	numOperands int // required number of tensor operands
	numScalars  int // required number of scalar prefactors
	operands    []*Tensor
	scalars     []complex128
	pattern     string // symbolic index pattern, optional
}

// NewTensorOperation constructs a yet unset tensor operation with the
// required number of tensor operands and scalar prefactors.
func NewTensorOperation(opcode OpCode, numOperands, numScalars int) *TensorOperation {
	if numOperands < 1 {
		exceptions.Panicf("tensor operation %s requires at least the output operand, got %d", opcode, numOperands)
	}
	if numScalars < 0 {
		exceptions.Panicf("tensor operation %s: negative number of scalars %d", opcode, numScalars)
	}
	return &TensorOperation{
		opcode:      opcode,
		numOperands: numOperands,
		numScalars:  numScalars,
		operands:    make([]*Tensor, 0, numOperands),
		scalars:     make([]complex128, numScalars),
	}
}

// OpCode of the operation.
func (op *TensorOperation) OpCode() OpCode { return op.opcode }

// NumOperands returns the number of tensor operands required by the operation.
func (op *TensorOperation) NumOperands() int { return op.numOperands }

// NumOperandsSet returns the number of tensor operands set so far.
func (op *TensorOperation) NumOperandsSet() int { return len(op.operands) }

// Operand returns the tensor operand at the given position:
// position 0 is the output, positions >= 1 are inputs.
func (op *TensorOperation) Operand(i int) *Tensor {
	if i < 0 || i >= len(op.operands) {
		exceptions.Panicf("tensor operation %s: operand %d out of range (%d set)", op.opcode, i, len(op.operands))
	}
	return op.operands[i]
}

// OperandHash returns the identity of the tensor operand at position i.
func (op *TensorOperation) OperandHash(i int) TensorHash {
	return op.Operand(i).Hash()
}

// SetTensorOperand appends the next tensor operand. The first appended operand
// is the output; subsequent ones are inputs.
func (op *TensorOperation) SetTensorOperand(tensor *Tensor) {
	if tensor == nil {
		exceptions.Panicf("tensor operation %s: nil tensor operand", op.opcode)
	}
	if len(op.operands) >= op.numOperands {
		exceptions.Panicf("tensor operation %s: all %d operands already set", op.opcode, op.numOperands)
	}
	op.operands = append(op.operands, tensor)
}

// NumScalars returns the number of scalar prefactors required by the operation.
func (op *TensorOperation) NumScalars() int { return op.numScalars }

// Scalar returns the scalar prefactor at position i.
func (op *TensorOperation) Scalar(i int) complex128 {
	if i < 0 || i >= len(op.scalars) {
		exceptions.Panicf("tensor operation %s: scalar %d out of range (%d total)", op.opcode, i, len(op.scalars))
	}
	return op.scalars[i]
}

// SetScalar sets the scalar prefactor at position i.
func (op *TensorOperation) SetScalar(i int, value complex128) {
	if i < 0 || i >= len(op.scalars) {
		exceptions.Panicf("tensor operation %s: scalar %d out of range (%d total)", op.opcode, i, len(op.scalars))
	}
	op.scalars[i] = value
}

// IndexPattern returns the symbolic index pattern, or "" if not set.
func (op *TensorOperation) IndexPattern() string { return op.pattern }

// SetIndexPattern sets the symbolic index pattern, e.g.
// "D(a,b)+=L(a,c)*R(c,b)". All tensor operands must be set beforehand.
func (op *TensorOperation) SetIndexPattern(pattern string) {
	if len(op.operands) != op.numOperands {
		exceptions.Panicf("tensor operation %s: index pattern requires all %d operands set, got %d",
			op.opcode, op.numOperands, len(op.operands))
	}
	op.pattern = pattern
}

// IsSet returns whether the operation has all its tensor operands set.
func (op *TensorOperation) IsSet() bool {
	return len(op.operands) == op.numOperands
}

// String implements fmt.Stringer.
func (op *TensorOperation) String() string {
	var sb strings.Builder
	sb.WriteString(op.opcode.String())
	sb.WriteString("{")
	for i, t := range op.operands {
		if i > 0 {
			sb.WriteString(",")
		}
		sb.WriteString(t.String())
	}
	sb.WriteString("}")
	if op.pattern != "" {
		fmt.Fprintf(&sb, " %q", op.pattern)
	}
	return sb.String()
}
