// Package onnx compiles parsed ONNX computation graphs and evaluates them
// eagerly, node by node, on a tensor backend.
package onnx
