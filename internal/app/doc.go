// Package app wires the stages of a training run together: dataset loading,
// config resolution, model assembly and the hand-off to the training
// pipeline. It is decoupled from any specific entrypoint like a CLI.
package app
