// Copyright 2024-2026 The ExaTN Authors. SPDX-License-Identifier: Apache-2.0

package numerics

import (
	"fmt"
	"math/cmplx"
	"strings"

	"github.com/pkg/errors"
)

// LegPairing maps an output tensor leg of an operator component onto a global
// tensor-space mode.
type LegPairing struct {
	GlobalMode uint64 // global tensor mode id
	OutputLeg  uint64 // output tensor leg of the component network
}

// OperatorComponent is one term of a tensor network operator: a tensor
// network (or a single tensor stored as a network of size 1) whose output
// legs are split into ket and bra legs, scaled by an expansion coefficient.
type OperatorComponent struct {
	Network     *TensorNetwork
	KetLegs     []LegPairing
	BraLegs     []LegPairing
	Coefficient complex128
}

// TensorOperator is an ordered linear combination of tensors and tensor
// networks whose output legs are distinguished as bra and ket legs.
//
// The first component is applied first when acting on a ket vector; the order
// of components reverses upon conjugation.
type TensorOperator struct {
	name       string
	components []OperatorComponent
}

// NewTensorOperator creates an empty named tensor network operator.
func NewTensorOperator(name string) *TensorOperator {
	return &TensorOperator{name: name}
}

// Name of the tensor operator.
func (o *TensorOperator) Name() string { return o.name }

// NumComponents returns the number of terms in the operator expansion.
func (o *TensorOperator) NumComponents() int { return len(o.components) }

// Component returns the component at the given position.
func (o *TensorOperator) Component(i int) (OperatorComponent, error) {
	if i < 0 || i >= len(o.components) {
		return OperatorComponent{}, errors.Errorf("tensor operator %q: component %d out of range (%d total)",
			o.name, i, len(o.components))
	}
	return o.components[i], nil
}

// AppendComponent appends a new term to the operator expansion. The ket and
// bra pairings specify which legs of the network output tensor act on a ket
// vector and which on a bra vector, and their mapping onto the global modes
// of the tensor space the operator acts upon.
func (o *TensorOperator) AppendComponent(network *TensorNetwork,
	ketPairing, braPairing []LegPairing, coefficient complex128) error {
	if network == nil {
		return errors.Errorf("tensor operator %q: nil component network", o.name)
	}
	output := network.GetTensorConn(0)
	if got, want := len(ketPairing)+len(braPairing), len(output.legs); got != want {
		return errors.Errorf("tensor operator %q: component %q pairs %d legs but its output tensor has %d",
			o.name, network.Name(), got, want)
	}
	o.components = append(o.components, OperatorComponent{
		Network:     network,
		KetLegs:     append([]LegPairing{}, ketPairing...),
		BraLegs:     append([]LegPairing{}, braPairing...),
		Coefficient: coefficient,
	})
	return nil
}

// AppendTensorComponent appends a single tensor as a term of the operator, by
// wrapping it into a tensor network of size 1 with all legs open.
func (o *TensorOperator) AppendTensorComponent(tensor *Tensor,
	ketPairing, braPairing []LegPairing, coefficient complex128) error {
	if tensor == nil {
		return errors.Errorf("tensor operator %q: nil component tensor", o.name)
	}
	network := NewTensorNetwork(tensor.Name(), tensor)
	legs := make([]TensorLeg, tensor.Rank())
	for i := range legs {
		legs[i] = TensorLeg{OtherID: 0, Dim: tensor.DimExtent(i)}
	}
	if err := network.AppendTensor(1, tensor, legs); err != nil {
		return errors.Wrapf(err, "tensor operator %q: wrapping tensor %q", o.name, tensor.Name())
	}
	return o.AppendComponent(network, ketPairing, braPairing, coefficient)
}

// DeleteComponent removes the component at the given position.
func (o *TensorOperator) DeleteComponent(i int) error {
	if i < 0 || i >= len(o.components) {
		return errors.Errorf("tensor operator %q: delete of component %d out of range (%d total)",
			o.name, i, len(o.components))
	}
	o.components = append(o.components[:i], o.components[i+1:]...)
	return nil
}

// Conjugate the tensor operator: bra and ket legs are swapped, expansion
// coefficients are complex conjugated and the component order is reversed.
func (o *TensorOperator) Conjugate() {
	for i, j := 0, len(o.components)-1; i < j; i, j = i+1, j-1 {
		o.components[i], o.components[j] = o.components[j], o.components[i]
	}
	for i := range o.components {
		c := &o.components[i]
		c.KetLegs, c.BraLegs = c.BraLegs, c.KetLegs
		c.Coefficient = cmplx.Conj(c.Coefficient)
	}
}

// Coefficients returns the linear expansion coefficients of all components,
// in order.
func (o *TensorOperator) Coefficients() []complex128 {
	coefs := make([]complex128, len(o.components))
	for i, c := range o.components {
		coefs[i] = c.Coefficient
	}
	return coefs
}

// String implements fmt.Stringer.
func (o *TensorOperator) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "TensorOperator %q: %d components", o.name, len(o.components))
	for i, c := range o.components {
		fmt.Fprintf(&sb, "\n  [%d] coef=%v ket=%d bra=%d net=%q",
			i, c.Coefficient, len(c.KetLegs), len(c.BraLegs), c.Network.Name())
	}
	return sb.String()
}
