package adapter

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPythonFirstExecutableLineSkipsImportsAndDocstring(t *testing.T) {
	src := `"""module docstring."""
import os
import sys

def main():
    pass

print("hello")
`
	line, err := pythonFirstExecutableLine(src)
	require.NoError(t, err)
	require.Equal(t, 6, line)
}

func TestRubyFirstExecutableLineSkipsRequires(t *testing.T) {
	src := `# frozen_string_literal: true
require "json"

puts "hi"
`
	line, err := rubyFirstExecutableLine(src)
	require.NoError(t, err)
	require.Equal(t, 4, line)
}

func TestRubyFirstExecutableLineStopsOnDefLine(t *testing.T) {
	src := `require 'foo'

# computes fizzbuzz

def fizzbuzz(n)
  n
end

(1..100).each do |i|
  puts fizzbuzz(i)
end
`
	line, err := rubyFirstExecutableLine(src)
	require.NoError(t, err)
	require.Equal(t, 5, line)
}

func TestGoFirstExecutableLineSkipsPackageAndImports(t *testing.T) {
	src := `package main

import (
	"fmt"
)

func main() {
	fmt.Println("hi")
}
`
	line, err := goFirstExecutableLine(src)
	require.NoError(t, err)
	require.Equal(t, 8, line)
}

func TestFirstExecutableLineFallsBackToOne(t *testing.T) {
	line, err := pythonFirstExecutableLine("")
	require.NoError(t, err)
	require.Equal(t, 1, line)
}
