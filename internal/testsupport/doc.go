// Package testsupport builds throwaway configurations and files for tests.
package testsupport
