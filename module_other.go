//go:build !linux && !windows

package sigpatch

func hostModule(name string) (Module, error) {
	return Module{}, ErrUnsupported
}
