package sigpatch

import (
	"errors"
	"fmt"
)

// Registry holds the signatures resolved for one host module. It is filled
// by RegisterAll during initialization and only read afterwards, so lookups
// need no locking as long as registration is not re-entered.
type Registry struct {
	mem    Memory
	mod    Module
	sigs   []*Signature
	byName map[string]*Signature
}

func NewRegistry(mem Memory, mod Module) *Registry {
	return &Registry{
		mem:    mem,
		mod:    mod,
		byName: make(map[string]*Signature),
	}
}

// Module is the module signatures are resolved against.
func (r *Registry) Module() Module {
	return r.mod
}

// Memory is the memory signatures are resolved in.
func (r *Registry) Memory() Memory {
	return r.mem
}

// RegisterAll resolves every definition in order. If any of them fails,
// nothing is added and the error names the failing signature.
func (r *Registry) RegisterAll(catalog Catalog) error {
	resolved := make([]*Signature, 0, len(catalog))
	for _, def := range catalog {
		sig, err := NewSignature(r.mem, r.mod, def)
		if err != nil {
			logger.WithError(err).WithField("signature", def.Name).Error("signature registration failed")
			return err
		}
		resolved = append(resolved, sig)
	}

	for _, sig := range resolved {
		r.sigs = append(r.sigs, sig)
		if _, dup := r.byName[sig.name]; !dup {
			r.byName[sig.name] = sig
		}
	}

	logger.WithField("module", r.mod.Name).Infof("registered %d signatures", len(resolved))
	return nil
}

func (r *Registry) Get(name string) (*Signature, bool) {
	sig, ok := r.byName[name]
	return sig, ok
}

func (r *Registry) AddressOf(name string) (Address, bool) {
	sig, ok := r.byName[name]
	if !ok {
		return 0, false
	}
	return sig.address, true
}

// MustSignature returns the named signature and panics if it was never
// registered. Callers rely on registration having succeeded.
func (r *Registry) MustSignature(name string) *Signature {
	sig, ok := r.byName[name]
	if !ok {
		panic(fmt.Sprintf("sigpatch: signature %q is not registered", name))
	}
	return sig
}

// MustAddress is MustSignature(name).Address().
func (r *Registry) MustAddress(name string) Address {
	return r.MustSignature(name).Address()
}

// Signatures returns the registered signatures in registration order.
func (r *Registry) Signatures() []*Signature {
	out := make([]*Signature, len(r.sigs))
	copy(out, r.sigs)
	return out
}

func (r *Registry) Len() int {
	return len(r.sigs)
}

// RestoreAll restores every signature, last registered first. It keeps going
// after a failure and returns all errors joined.
func (r *Registry) RestoreAll(p *Patcher) error {
	var errs []error
	for i := len(r.sigs) - 1; i >= 0; i-- {
		if err := r.sigs[i].Restore(p); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
