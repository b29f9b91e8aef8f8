package tool

import (
	"math"

	"github.com/hupe1980/agentgraph/core"
)

// OperandArgs are the arguments of the arithmetic tools.
type OperandArgs struct {
	A int `json:"a" jsonschema:"the first integer operand"`
	B int `json:"b" jsonschema:"the second integer operand"`
}

// Add returns a tool adding two integers.
func Add() *FunctionTool {
	return MustNewFunc("add", "This is an addition function that adds 2 numbers together",
		func(_ *core.ToolContext, args OperandArgs) (any, error) {
			return args.A + args.B, nil
		})
}

// Subtract returns a tool subtracting b from a.
func Subtract() *FunctionTool {
	return MustNewFunc("subtract", "Subtraction function",
		func(_ *core.ToolContext, args OperandArgs) (any, error) {
			return args.A - args.B, nil
		})
}

// Multiply returns a tool multiplying two integers.
func Multiply() *FunctionTool {
	return MustNewFunc("multiply", "Multiplication function",
		func(_ *core.ToolContext, args OperandArgs) (any, error) {
			return args.A * args.B, nil
		})
}

// Divide returns a tool dividing a by b as a float. Any division by zero
// yields positive infinity, never an error.
func Divide() *FunctionTool {
	return MustNewFunc("divide", "Division function",
		func(_ *core.ToolContext, args OperandArgs) (any, error) {
			if args.B == 0 {
				return math.Inf(1), nil
			}

			return float64(args.A) / float64(args.B), nil
		})
}

// Arithmetic returns add, subtract, multiply and divide.
func Arithmetic() []Tool {
	return []Tool{Add(), Subtract(), Multiply(), Divide()}
}
