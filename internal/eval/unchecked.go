//go:build nodevm_unchecked

package eval

const checked = false
