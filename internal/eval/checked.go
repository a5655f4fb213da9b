//go:build !nodevm_unchecked

package eval

// checked enables the explicit stack bounds and unset-output checks.
const checked = true
