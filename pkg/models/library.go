package models

// LibrarySuffix is the extension of shared library files
const LibrarySuffix = ".libsonnet"

// Library is a shared file importable from any script
type Library struct {
	Name string `json:"name"`
	Path string `json:"path"`
}
