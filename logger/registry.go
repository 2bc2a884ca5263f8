package logger

import "sync"

// components caches one tagged logger per component name so hot paths do
// not rebuild zerolog contexts on every run.
var components sync.Map // name -> *Logger

// Component returns the logger for name, derived from the global logger on
// first use. Override installs a specific logger for a component instead.
func Component(name string) *Logger {
	if l, ok := components.Load(name); ok {
		return l.(*Logger)
	}
	l, _ := components.LoadOrStore(name, GetGlobalLogger().WithComponent(name))
	return l.(*Logger)
}

// Override makes Component(name) return l.
func Override(name string, l *Logger) {
	components.Store(name, l)
}

// Reset forgets every cached component logger. Init calls it so components
// pick up the new global configuration.
func Reset() {
	components.Range(func(k, _ any) bool {
		components.Delete(k)
		return true
	})
}
