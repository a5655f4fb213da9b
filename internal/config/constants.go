package config

// StackSize is the number of four-byte slots in an evaluation stack.
// Compiled streams address slots in [0, StackSize).
const StackSize = 4095

// SlotSize is the width of one stack slot in bytes.
const SlotSize = 4

// Settings file names, searched in this order
var SettingsFileNames = []string{"nodevm.yaml", "nodevm.yml"}

// ProgramFileExtensions are all recognized program file extensions
var ProgramFileExtensions = []string{".yaml", ".yml"}

// Execution strategy names as they appear in settings and flags
const (
	StrategyInterpreted = "interpreted"
	StrategyCodegen     = "codegen"
)

// Defaults applied by Settings.setDefaults
const (
	DefaultLogLevel = "info"
	DefaultWorkers  = 4
	DefaultSites    = 1
)

// LoggerName is the root name of every hclog logger created by the runtime.
const LoggerName = "nodevm"

// IsProgramFile reports whether path has a recognized program extension.
func IsProgramFile(path string) bool {
	for _, ext := range ProgramFileExtensions {
		if len(path) > len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

// Version is reported by `nodevm version`.
const Version = "0.1.0"

// DefaultEmitPackage is the package name `nodevm emit` generates into.
const DefaultEmitPackage = "kernels"
